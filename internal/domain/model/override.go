package model

// ScoreOverride is a manually supplied score adjustment. It takes precedence
// over the computed score; Exclude forces the effective score to zero
// regardless of Score.
type ScoreOverride struct {
	Score   *float64 `json:"score,omitempty"`
	Exclude bool     `json:"exclude,omitempty"`
	User    string   `json:"user,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

// EffectiveScore resolves the override against a computed score. A nil
// receiver means no override was set.
func (o *ScoreOverride) EffectiveScore(computed float64) float64 {
	if o == nil {
		return computed
	}
	if o.Exclude {
		return 0
	}
	if o.Score != nil {
		return *o.Score
	}
	return computed
}

// IsSet reports whether the override carries any effect.
func (o *ScoreOverride) IsSet() bool {
	return o != nil && (o.Exclude || o.Score != nil)
}
