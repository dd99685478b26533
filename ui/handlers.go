package ui

import (
	"errors"
	"net/http"
	"strconv"

	"goqv/adapters/sim"
	"goqv/app"
	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/internal/analysis/confidence"
	"goqv/internal/analysis/distribution"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownWidth):
		return http.StatusNotFound
	case core.IsRegistrationError(err):
		return http.StatusConflict
	case core.IsDataError(err):
		if errors.Is(err, core.ErrInsufficientData) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRunInfo(c *gin.Context) {
	subsets := s.svc.Engine().Config().QubitSubsets()
	c.JSON(http.StatusOK, gin.H{
		"run_id":        s.svc.RunID(),
		"qubit_subsets": subsets,
		"config_hash":   core.ComputeConfigHash(subsets),
	})
}

func (s *Server) handleListWidths(c *gin.Context) {
	cfg := s.svc.Engine().Config()
	widths := make([]gin.H, 0, cfg.NumWidths())
	for i, spec := range cfg.Specs {
		widths = append(widths, gin.H{
			"width_index":  i,
			"width":        spec.Width(),
			"qubits":       spec.Qubits,
			"num_outcomes": spec.NumOutcomes(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"widths": widths, "count": len(widths)})
}

func (s *Server) handleWidthStatistics(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width index must be an integer"})
		return
	}

	s.mu.Lock()
	stats, err := s.svc.Engine().Statistics(index)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("statistics query for width %d failed: %v", index, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"statistics": stats}
	if est, err := confidence.NewEstimator().Estimate(stats.MeanFraction, stats.TotalShots, stats.Trials); err == nil {
		resp["estimate"] = est
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVolume(c *gin.Context) {
	s.mu.Lock()
	report, err := s.svc.Resolve()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("volume resolution failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// IdealTrialRequest registers one ideal circuit result. Exactly one of
// Amplitudes (statevector as [re, im] pairs) or Probabilities must be set.
type IdealTrialRequest struct {
	WidthIndex    int                `json:"width_index"`
	TrialIndex    int                `json:"trial_index"`
	Amplitudes    [][2]float64       `json:"amplitudes,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

func (s *Server) handleAddIdeal(c *gin.Context) {
	var req IdealTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	var src distribution.Source
	switch {
	case len(req.Amplitudes) > 0 && len(req.Probabilities) > 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide amplitudes or probabilities, not both"})
		return
	case len(req.Amplitudes) > 0:
		amps := make(distribution.Amplitudes, len(req.Amplitudes))
		for i, pair := range req.Amplitudes {
			amps[i] = complex(pair[0], pair[1])
		}
		src = amps
	case len(req.Probabilities) > 0:
		src = distribution.Probabilities(req.Probabilities)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "amplitudes or probabilities required"})
		return
	}

	key := core.NewTrialKey(req.WidthIndex, req.TrialIndex)
	s.mu.Lock()
	err := s.svc.Engine().AddIdealSource(key, src)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("ideal registration %s failed: %v", key, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Debug("registered ideal trial %s", key)
	c.JSON(http.StatusCreated, gin.H{"trial": key})
}

// ExperimentalTrialRequest folds one set of measurement counts into the run
type ExperimentalTrialRequest struct {
	WidthIndex int       `json:"width_index"`
	TrialIndex int       `json:"trial_index"`
	Counts     qv.Counts `json:"counts"`
}

func (s *Server) handleAddExperimental(c *gin.Context) {
	var req ExperimentalTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	key := core.NewTrialKey(req.WidthIndex, req.TrialIndex)
	s.mu.Lock()
	err := s.svc.Engine().AddExperimental(key, req.Counts)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("experimental aggregation %s failed: %v", key, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Debug("aggregated experimental trial %s", key)
	c.JSON(http.StatusAccepted, gin.H{"trial": key})
}

// SimulateRequest drives a full simulated experiment against this run
type SimulateRequest struct {
	Trials    int     `json:"trials"`
	Shots     int     `json:"shots"`
	Seed      int64   `json:"seed"`
	ErrorRate float64 `json:"error_rate"`
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Trials < 1 || req.Shots < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trials and shots must be positive"})
		return
	}

	backend := sim.NewSimulator(sim.Config{Seed: req.Seed, ErrorRate: req.ErrorRate})

	s.mu.Lock()
	err := s.svc.Execute(c.Request.Context(), app.ExecuteRequest{
		Generator:    backend,
		Ideal:        backend,
		Experimental: backend,
		NumTrials:    req.Trials,
		Shots:        req.Shots,
	})
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("simulated experiment failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("simulated %d trials at %d shots (seed %d, error rate %.3f)",
		req.Trials, req.Shots, req.Seed, req.ErrorRate)
	c.JSON(http.StatusOK, gin.H{
		"run_id": s.svc.RunID(),
		"trials": req.Trials,
		"shots":  req.Shots,
	})
}
