// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	copyBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lodtensor_copy_bytes_total",
		Help: "Bytes transferred by buffer copies, by destination place",
	}, []string{"place"})

	copyOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lodtensor_copy_ops_total",
		Help: "Buffer copies issued, by destination place",
	}, []string{"place"})
)

// RegisterMetrics registers the package collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{copyBytes, copyOps} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func recordCopy(dst Place, n int) {
	l := dst.String()
	copyOps.WithLabelValues(l).Inc()
	copyBytes.WithLabelValues(l).Add(float64(n))
}
