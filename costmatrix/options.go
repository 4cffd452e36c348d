package costmatrix

import (
	"fmt"
	"strings"
)

// MissingPolicy decides what Builder.Build does with pairs that were neither
// set nor marked invalid.
type MissingPolicy int

const (
	// MissingInvalid turns every pending pair into an invalid entry. This is
	// the default: an unknown route is treated as no route.
	MissingInvalid MissingPolicy = iota

	// MissingReject makes Build fail with ErrUnresolved.
	MissingReject

	// MissingEstimate asks the configured Estimator for a substitute cost;
	// pairs it cannot estimate become invalid.
	MissingEstimate
)

// String returns the config spelling of the policy.
func (p MissingPolicy) String() string {
	switch p {
	case MissingInvalid:
		return "invalid"
	case MissingReject:
		return "reject"
	case MissingEstimate:
		return "estimate"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// ParseMissingPolicy maps "invalid", "reject" or "estimate" (case-insensitive)
// to a MissingPolicy.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "invalid":
		return MissingInvalid, nil
	case "reject":
		return MissingReject, nil
	case "estimate":
		return MissingEstimate, nil
	default:
		return 0, fmt.Errorf("missing policy %q: %w", s, ErrBadOption)
	}
}

// Estimator substitutes a cost for an unresolved pair. It returns ok=false
// when no estimate is possible; the pair then becomes invalid.
type Estimator func(from, to int) (cost float64, ok bool)

// Option configures a Builder.
type Option func(*options)

type options struct {
	labels    []string
	policy    MissingPolicy
	estimator Estimator
	err       error // first option error, reported by NewBuilder
}

// WithLabels names the locations so entries can be addressed with SetByLabel.
// Labels must be non-empty, unique, and exactly N of them.
func WithLabels(labels ...string) Option {
	return func(o *options) {
		o.labels = append([]string(nil), labels...)
	}
}

// WithMissingPolicy selects the policy applied to pending pairs by Build.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(o *options) {
		if p < MissingInvalid || p > MissingEstimate {
			o.err = fmt.Errorf("missing policy %d: %w", int(p), ErrBadOption)
			return
		}
		o.policy = p
	}
}

// WithEstimator installs the estimator used by MissingEstimate.
func WithEstimator(e Estimator) Option {
	return func(o *options) { o.estimator = e }
}

// gatherOptions applies opts over the defaults and checks them against n.
func gatherOptions(n int, opts []Option) (options, error) {
	o := options{policy: MissingInvalid}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, o.err
	}
	if o.policy == MissingEstimate && o.estimator == nil {
		return o, fmt.Errorf("estimate policy without estimator: %w", ErrBadOption)
	}
	if o.labels != nil {
		if len(o.labels) != n {
			return o, fmt.Errorf("%d labels for %d locations: %w", len(o.labels), n, ErrBadOption)
		}
		seen := make(map[string]struct{}, n)
		for i, l := range o.labels {
			if l == "" {
				return o, fmt.Errorf("label %d is empty: %w", i, ErrBadOption)
			}
			if _, dup := seen[l]; dup {
				return o, fmt.Errorf("label %q repeated: %w", l, ErrBadOption)
			}
			seen[l] = struct{}{}
		}
	}

	return o, nil
}
