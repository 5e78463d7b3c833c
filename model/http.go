package model

type PerturbRequestBody struct {
	Score        Score        `json:"score"`
	Ensemble     EnsembleKind `json:"ensemble"`
	Seed         *uint64      `json:"seed,omitempty"`
	FixedMistake *MistakeKind `json:"fixed_mistake,omitempty"`
	AllowOverlap bool         `json:"allow_overlap"`
	PitchBends   bool         `json:"pitch_bends"`
}

type PerturbResponse struct {
	Score  Score  `json:"score"`
	Report Report `json:"report"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
