package units

//Handler is the conversion capability a trajectory reader or writer holds:
//the format's native units, the base units everything else assumes, and the
//registry that knows the factors between them. All conversions are in
//place and return the same buffer they were given; callers that need the
//original values must copy first.
type Handler struct {
	native map[string]string
	cfg    Config
	reg    Registry
}

//NewHandler builds a Handler for a stream whose native units are given by
//native (quantity name to unit string). A nil registry means the built-in
//table.
func NewHandler(native map[string]string, cfg Config, reg Registry) *Handler {
	if reg == nil {
		reg = Default()
	}
	return &Handler{native: native, cfg: cfg, reg: reg}
}

//Native returns the stream's native unit for the given quantity, or the
//empty string if the stream didn't declare one.
func (H *Handler) Native(quantity string) string {
	return H.native[quantity]
}

//factor resolves the conversion factor for quantity. toNative inverts the
//direction: base to native instead of native to base.
func (H *Handler) factor(quantity string, toNative bool) (float64, error) {
	from := H.native[quantity]
	to := H.cfg.Base(quantity)
	if toNative {
		from, to = to, from
	}
	f, err := H.reg.Factor(quantity, from, to)
	if err != nil {
		return 0, errDecorate(err, "factor")
	}
	return f, nil
}

func scale32(x []float32, f float64) []float32 {
	for i := range x {
		x[i] = float32(float64(x[i]) * f)
	}
	return x
}

func scale64(x []float64, f float64) []float64 {
	for i := range x {
		x[i] *= f
	}
	return x
}

//PositionFromNative scales the positions in x, in place, from the stream's
//native length unit to the base length unit, and returns x.
func (H *Handler) PositionFromNative(x []float32) ([]float32, error) {
	f, err := H.factor("length", false)
	if err != nil {
		return x, errDecorate(err, "PositionFromNative")
	}
	return scale32(x, f), nil
}

//PositionToNative scales the positions in x, in place, from the base
//length unit back to the stream's native length unit, and returns x.
func (H *Handler) PositionToNative(x []float32) ([]float32, error) {
	f, err := H.factor("length", true)
	if err != nil {
		return x, errDecorate(err, "PositionToNative")
	}
	return scale32(x, f), nil
}

//TimeFromNative scales the times in t, in place, from the stream's native
//time unit to the base time unit, and returns t.
func (H *Handler) TimeFromNative(t []float64) ([]float64, error) {
	f, err := H.factor("time", false)
	if err != nil {
		return t, errDecorate(err, "TimeFromNative")
	}
	return scale64(t, f), nil
}

//TimeToNative scales the times in t, in place, from the base time unit
//back to the stream's native time unit, and returns t.
func (H *Handler) TimeToNative(t []float64) ([]float64, error) {
	f, err := H.factor("time", true)
	if err != nil {
		return t, errDecorate(err, "TimeToNative")
	}
	return scale64(t, f), nil
}

//errDecorate adds the caller name to the decoration slice of err, which
//must implement the decorated-error convention. Panics otherwise.
func errDecorate(err error, caller string) error {
	err2 := err.(interface {
		Error() string
		Decorate(string) []string
	})
	err2.Decorate(caller)
	return err2
}
