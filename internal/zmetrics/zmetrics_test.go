package zmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveTalkIncrementsByResult(t *testing.T) {
	m := NewUnregistered()
	m.ObserveTalk(TalkOK)
	m.ObserveTalk(TalkOK)
	m.ObserveTalk(TalkTimeout)

	require.Equal(t, float64(2), testutil.ToFloat64(m.TalkTotal.WithLabelValues(string(TalkOK))))
	require.Equal(t, float64(1), testutil.ToFloat64(m.TalkTotal.WithLabelValues(string(TalkTimeout))))
}

func TestObserveInstallIncrementsByAction(t *testing.T) {
	m := NewUnregistered()
	m.ObserveInstall(InstallAdd)
	m.ObserveInstall(InstallDelete)
	m.ObserveInstall(InstallDelete)

	require.Equal(t, float64(1), testutil.ToFloat64(m.InstallTotal.WithLabelValues(string(InstallAdd))))
	require.Equal(t, float64(2), testutil.ToFloat64(m.InstallTotal.WithLabelValues(string(InstallDelete))))
}

func TestObserveUnresolvableAndFDBCounters(t *testing.T) {
	m := NewUnregistered()
	m.ObserveUnresolvableNexthop()
	m.ObserveUnresolvableNexthop()
	m.ObserveFDBLearned()
	m.ObserveFDBWithdrawn()

	require.Equal(t, float64(2), testutil.ToFloat64(m.NexthopUnresolvable))
	require.Equal(t, float64(1), testutil.ToFloat64(m.BridgeFDBLearned))
	require.Equal(t, float64(1), testutil.ToFloat64(m.BridgeFDBWithdrawn))
}

func TestNilMetricsObserveIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveTalk(TalkOK)
		m.ObserveInstall(InstallAdd)
		m.ObserveUnresolvableNexthop()
		m.ObserveFDBLearned()
		m.ObserveFDBWithdrawn()
	})
}
