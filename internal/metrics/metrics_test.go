package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.PagesFetched.WithLabelValues("ok").Inc()
	a.PagesFetched.WithLabelValues("ok").Inc()
	b.PagesFetched.WithLabelValues("ok").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.PagesFetched.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.PagesFetched.WithLabelValues("ok")))
}

func TestDefault_Singleton(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Same(t, Default(), OrDefault(nil))

	m := New(prometheus.NewRegistry())
	assert.Same(t, m, OrDefault(m))
}
