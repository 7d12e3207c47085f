/*
 * Copyright 2026 XIPC Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package xipc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMonitorRecordsFlow(t *testing.T) {
	reg := prometheus.NewRegistry()
	mon, err := NewPrometheusMonitor(reg, nil)
	require.NoError(t, err)

	creator, _ := openTestPair(t, "monitor-demo")
	_, err = creator.Write([]byte("hi"))
	require.NoError(t, err)

	perf, stab, shm := creator.Snapshot()
	mon.OnEmitSessionMetrics(perf, stab, shm, creator)
	assert.NoError(t, mon.Flush())

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "xipc_out_flow_bytes_total" {
			found = true
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(2), mf.Metric[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "expected xipc_out_flow_bytes_total to be registered")
}
