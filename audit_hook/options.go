package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts the trail to the given actions.
// Without it every action is recorded.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = toSet(actions)
	}
}

// WithDisabledActions removes actions from the trail, starting from the
// current allow list or from every known action.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = toSet(allActions())
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// WithCategories records only events in the given categories, e.g.
// CategoryAccess to keep a trail of authorization denials alone.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		e.categories = toSet(categories)
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func allActions() []string {
	return []string{
		ActionInvoiceCreated,
		ActionInvoiceFunded,
		ActionInvoiceReleased,
		ActionInvoiceRefunded,
		ActionDisputeRaised,
		ActionDisputeResolved,
		ActionTransitionRejected,
		ActionTransferFailed,
	}
}
