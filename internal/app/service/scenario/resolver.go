package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/config"
)

// ErrInvalidScenario marks a scenario name that is not configured.
var ErrInvalidScenario = errors.New("unknown scenario")

// Outcome is how the simulated provider resolves a payment.
type Outcome struct {
	Status       models.PaymentStatus `json:"status" mapstructure:"status"`
	StatusDetail string               `json:"status_detail" mapstructure:"status_detail"`
}

const builtinDefault = "success"

// builtinScenarios is the fallback table used when the scenario file is
// missing or malformed; file entries add to or override these.
func builtinScenarios() map[string]Outcome {
	return map[string]Outcome{
		"success":                      {Status: models.PaymentStatusApproved, StatusDetail: "accredited"},
		"pending":                      {Status: models.PaymentStatusPending, StatusDetail: "pending_waiting_payment"},
		"in_process":                   {Status: models.PaymentStatusInProcess, StatusDetail: "pending_contingency"},
		"rejected":                     {Status: models.PaymentStatusRejected, StatusDetail: "cc_rejected_other_reason"},
		"rejected_insufficient_amount": {Status: models.PaymentStatusRejected, StatusDetail: "cc_rejected_insufficient_amount"},
		"rejected_high_risk":           {Status: models.PaymentStatusRejected, StatusDetail: "rejected_high_risk"},
		"rejected_bad_filled_card":     {Status: models.PaymentStatusRejected, StatusDetail: "cc_rejected_bad_filled_card_number"},
		"timeout":                      {Status: models.PaymentStatusInProcess, StatusDetail: "pending_review_manual"},
	}
}

type fileConfig struct {
	Default   string             `mapstructure:"default"`
	Scenarios map[string]Outcome `mapstructure:"scenarios"`
}

// Resolver maps scenario names to provider outcomes and tracks the active
// default scenario used when a creation request names none.
type Resolver struct {
	log *zap.SugaredLogger

	mu        sync.RWMutex
	scenarios map[string]Outcome
	active    string
}

// New loads the scenario file once. Any read or shape error logs a warning
// and leaves the built-in table in place; construction never fails.
func New(cfg *config.Config, log *zap.SugaredLogger) *Resolver {
	r := &Resolver{
		log:       log,
		scenarios: builtinScenarios(),
		active:    builtinDefault,
	}

	file := cfg.Scenario.File
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Warnw("scenario_config_unreadable", "file", file, "error", err.Error())
		return r
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		log.Warnw("scenario_config_malformed", "file", file, "error", err.Error())
		return r
	}
	for name, o := range fc.Scenarios {
		if name == "" || o.Status == "" {
			log.Warnw("scenario_entry_skipped", "file", file, "name", name)
			continue
		}
		r.scenarios[name] = o
	}
	if fc.Default != "" {
		if _, ok := r.scenarios[fc.Default]; ok {
			r.active = fc.Default
		} else {
			log.Warnw("scenario_default_unknown", "file", file, "name", fc.Default)
		}
	}
	log.Infow("scenario_config_loaded", "file", file, "scenarios", len(r.scenarios), "default", r.active)
	return r
}

// Outcome resolves a scenario name; an empty name means the active default.
func (r *Resolver) Outcome(name string) (Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.active
	}
	o, ok := r.scenarios[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidScenario, name)
	}
	return o, nil
}

// SetDefault switches the active default scenario.
func (r *Resolver) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenarios[name]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidScenario, name)
	}
	r.active = name
	return nil
}

// Default returns the active default scenario name.
func (r *Resolver) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names lists configured scenario names, sorted. Never empty.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.scenarios)
	sort.Strings(names)
	return names
}
