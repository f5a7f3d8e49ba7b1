package indicator

// Recurrence is a first-order exponential smoother:
//
//	value(0) = input(0)
//	value(k) = alpha*input(k) + (1-alpha)*value(k-1)
//
// Seeding from the first input means the output is defined at every index;
// there is no warm-up gap. EMA is the alpha = 2/(period+1) instance.
type Recurrence struct {
	alpha  float64
	seeded bool
	value  float64
}

// NewRecurrence creates a smoother with the given factor, 0 < alpha <= 1.
// alpha = 1 degenerates to the identity.
func NewRecurrence(alpha float64) (*Recurrence, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, &InvalidParameterError{Param: "alpha", Value: alpha, Reason: "must satisfy 0 < alpha <= 1"}
	}
	return &Recurrence{alpha: alpha}, nil
}

// Push feeds the next input and returns the smoothed value.
func (r *Recurrence) Push(v float64) float64 {
	if !r.seeded {
		r.value = v
		r.seeded = true
		return r.value
	}
	r.value = r.alpha*v + (1-r.alpha)*r.value
	return r.value
}

// Value returns the current smoothed value. Zero before the first Push.
func (r *Recurrence) Value() float64 { return r.value }

// Seeded reports whether at least one input has been pushed.
func (r *Recurrence) Seeded() bool { return r.seeded }
