package cmd

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/ensemble"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/pipeline"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var (
	serveConfig = config.Default()
	servePort   string
)

const (
	maxRequestBytes = 32 << 20
	maxRequestTempo = 400
	// maxScoreSeconds bounds note times so the mistake count stays bounded.
	maxScoreSeconds = 6 * 60 * 60
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the perturbation engine over HTTP",
	Long:  `Serves POST /perturb, which perturbs a JSON score and returns it with a report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		serveConfig = cfg
		log.Fatal(http.ListenAndServe(servePort, NewRouter()))
		return nil
	},
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/perturb", HandlePerturb).Methods("POST")
	return cors.Default().Handler(router)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error()})
}

func HandlePerturb(w http.ResponseWriter, r *http.Request) {
	reqBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err)
		return
	}

	var input model.PerturbRequestBody
	if err := json.Unmarshal(reqBody, &input); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "Could not unmarshal request body"))
		return
	}
	if input.Ensemble == "" {
		input.Ensemble = model.StringEnsemble
	}
	if err := validateScore(&input.Score); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	seed := dist.NewSeed()
	if input.Seed != nil {
		seed = *input.Seed
	}

	score := input.Score
	p := pipeline.New(serveConfig, seed, dist.New(seed), pipeline.WithLogger(logger()))
	report, err := p.Run(r.Context(), &score, input.Ensemble, pipeline.CorruptOptions{
		AllowOverlap: input.AllowOverlap,
		FixedKind:    input.FixedMistake,
		PitchBends:   input.PitchBends,
	})
	switch {
	case errors.Is(err, ensemble.ErrUnsupportedEnsembleKind),
		errors.Is(err, ensemble.ErrUnknownPart),
		errors.Is(err, dist.ErrInvalidDistributionParameters):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.PerturbResponse{Score: score, Report: report})
}

func validateScore(score *model.Score) error {
	if !(score.Tempo >= 0 && score.Tempo <= maxRequestTempo) {
		return errors.Errorf("tempo must lie in [0, %d]", maxRequestTempo)
	}
	for i, t := range score.Tracks {
		if t == nil {
			return errors.Errorf("track %d is null", i)
		}
		for j, n := range t.Notes {
			if !(n.Start >= 0 && n.End <= maxScoreSeconds) {
				return errors.Errorf("track %d note %d: times must lie in [0, %d] seconds", i, j, maxScoreSeconds)
			}
		}
		for j, b := range t.PitchBends {
			if !(b.Time >= 0 && b.Time <= maxScoreSeconds) {
				return errors.Errorf("track %d bend %d: time must lie in [0, %d] seconds", i, j, maxScoreSeconds)
			}
		}
	}
	return nil
}
