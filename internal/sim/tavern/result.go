package tavern

// Result is the outcome of one gameplay action. Errors here are expected,
// recoverable conditions surfaced to the caller; the engine never panics for
// them. Validation always precedes mutation, so a failed Result implies zero
// state change.
type Result struct {
	OK   bool   `json:"ok"`
	Code string `json:"code,omitempty"`
	Err  string `json:"error,omitempty"`
	Tone string `json:"tone,omitempty"`

	Data map[string]any `json:"data,omitempty"`
}

func okRes() Result {
	return Result{OK: true, Tone: ToneGood}
}

func okData(data map[string]any) Result {
	return Result{OK: true, Tone: ToneGood, Data: data}
}

func fail(code, msg string) Result {
	return Result{OK: false, Code: code, Err: msg, Tone: ToneBad}
}

func (r Result) withTone(tone string) Result {
	r.Tone = tone
	return r
}
