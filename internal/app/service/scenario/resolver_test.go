package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/config"
)

func resolverWithFile(t *testing.T, file string) *Resolver {
	t.Helper()
	cfg := &config.Config{Scenario: config.ScenarioConfig{File: file}}
	return New(cfg, zap.NewNop().Sugar())
}

func TestNew_MissingFileFallsBackToBuiltins(t *testing.T) {
	r := resolverWithFile(t, "testdata/does-not-exist.yaml")

	require.Equal(t, "success", r.Default())
	require.NotEmpty(t, r.Names())
	require.Contains(t, r.Names(), "success")
	require.Contains(t, r.Names(), "pending")
	require.Contains(t, r.Names(), "rejected")
	require.Contains(t, r.Names(), "timeout")
}

func TestNew_MalformedFileFallsBackToBuiltins(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(file, []byte("{not yaml: ["), 0o600))

	r := resolverWithFile(t, file)
	require.Equal(t, "success", r.Default())
	require.Contains(t, r.Names(), "pending")
}

func TestNew_FileEntriesOverrideAndExtend(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scenarios.yaml")
	body := `default: pending
scenarios:
  success:
    status: approved
    status_detail: custom_detail
  expired_card:
    status: rejected
    status_detail: cc_rejected_card_expired
`
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))

	r := resolverWithFile(t, file)
	require.Equal(t, "pending", r.Default())

	o, err := r.Outcome("success")
	require.NoError(t, err)
	require.Equal(t, "custom_detail", o.StatusDetail)

	o, err = r.Outcome("expired_card")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, o.Status)
}

func TestOutcome_EmptyNameUsesActiveDefault(t *testing.T) {
	r := resolverWithFile(t, "testdata/does-not-exist.yaml")

	o, err := r.Outcome("")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, o.Status)
	require.Equal(t, "accredited", o.StatusDetail)

	require.NoError(t, r.SetDefault("pending"))
	o, err = r.Outcome("")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, o.Status)
	require.Equal(t, "pending_waiting_payment", o.StatusDetail)
}

func TestOutcome_Deterministic(t *testing.T) {
	r := resolverWithFile(t, "testdata/does-not-exist.yaml")
	for i := 0; i < 5; i++ {
		o, err := r.Outcome("rejected_insufficient_amount")
		require.NoError(t, err)
		require.Equal(t, models.PaymentStatusRejected, o.Status)
		require.Equal(t, "cc_rejected_insufficient_amount", o.StatusDetail)
	}
}

func TestInvalidScenario(t *testing.T) {
	r := resolverWithFile(t, "testdata/does-not-exist.yaml")

	_, err := r.Outcome("nope")
	require.ErrorIs(t, err, ErrInvalidScenario)

	err = r.SetDefault("nope")
	require.ErrorIs(t, err, ErrInvalidScenario)
	require.Equal(t, "success", r.Default())
}
