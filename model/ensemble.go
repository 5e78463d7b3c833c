package model

type Part string

const (
	Soprano Part = "Soprano"
	Alto    Part = "Alto"
	Tenor   Part = "Tenor"
	Bass    Part = "Bass"
)

// FourParts is the canonical order tracks are bound to parts in.
var FourParts = []Part{Soprano, Alto, Tenor, Bass}

type EnsembleKind string

const (
	StringEnsemble   EnsembleKind = "string"
	BrassEnsemble    EnsembleKind = "brass"
	WoodwindEnsemble EnsembleKind = "woodwind"
	RandomEnsemble   EnsembleKind = "random"
)

var EnsembleKinds = []EnsembleKind{StringEnsemble, BrassEnsemble, WoodwindEnsemble, RandomEnsemble}
