package registry

import (
	"context"
	"strings"

	"loopnerd/internal/loop"
	"loopnerd/internal/store"
	"loopnerd/internal/triage"
)

// start creates a new loop in active state at round 1. Each call creates a
// fresh loop; start is never idempotent.
func (r *Registry) start(ctx context.Context, p Params) Response {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		return errorResponse("topic required")
	}

	var view *loop.Loop
	err := r.store.Update(ctx, func(doc *store.Document) error {
		now := r.now().UnixMilli()
		rec := &loop.Loop{
			LoopID:              r.newID(),
			Topic:               topic,
			OwnerAgentID:        r.agentID,
			State:               loop.StateActive,
			CurrentRound:        1,
			MaxRounds:           maxRoundsFromParam(p.MaxRounds),
			Priority:            loop.NormalizePriority(p.Priority),
			CreatedAt:           now,
			UpdatedAt:           now,
			StartedBySessionKey: r.sessionKey,
			Checkpoints:         []loop.Checkpoint{},
			Decisions:           []loop.Decision{},
		}
		doc.Loops[rec.LoopID] = rec
		view = rec.Clone()
		return nil
	})
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Status: StatusStarted, Loop: view}
}

// checkpoint appends the round's analysis checkpoint and moves the loop to
// awaiting_decision. The response carries canContinue and the spawn advice
// derived from the checkpoint's signals.
func (r *Registry) checkpoint(ctx context.Context, p Params) Response {
	if p.LoopID == "" {
		return errorResponse("loopId required")
	}
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		return errorResponse("summary required")
	}

	var (
		view        *loop.Loop
		canContinue bool
		advice      triage.SpawnAdvice
	)
	err := r.store.Update(ctx, func(doc *store.Document) error {
		rec, err := r.ownedLoop(doc, p.LoopID)
		if err != nil {
			return err
		}

		cp := loop.Checkpoint{
			Summary:         summary,
			Critique:        strings.TrimSpace(p.Critique),
			Recommendation:  recommendationFromParam(p.Recommendation),
			ProposedTasks:   p.ProposedTasks,
			Importance:      loop.RatingFromFloat(p.Importance),
			Urgency:         loop.RatingFromFloat(p.Urgency),
			Confidence:      loop.RatingFromFloat(p.Confidence),
			EvidenceQuality: loop.RatingFromFloat(p.EvidenceQuality),
			CitationLinks:   p.CitationLinks,
			Counterpoints:   p.Counterpoints,
			WhyNow:          p.WhyNow,
		}
		// Clamp lists and strings before scoring so the derived scores see
		// exactly what will be persisted.
		loop.NormalizeCheckpoint(&cp)

		if err := rec.RecordCheckpoint(cp, r.now().UnixMilli()); err != nil {
			return err
		}

		last := rec.LastCheckpoint()
		canContinue = last.Recommendation == loop.RecommendContinue && rec.CurrentRound < rec.MaxRounds
		advice = triage.Advise(rec, canContinue)
		view = rec.Clone()
		return nil
	})
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{
		Status:      StatusCheckpointed,
		Loop:        view,
		CanContinue: &canContinue,
		SpawnAdvice: &advice,
	}
}

// continueLoop records the operator's continue decision and opens the next
// round.
func (r *Registry) continueLoop(ctx context.Context, p Params) Response {
	if p.LoopID == "" {
		return errorResponse("loopId required")
	}

	var view *loop.Loop
	err := r.store.Update(ctx, func(doc *store.Document) error {
		rec, err := r.ownedLoop(doc, p.LoopID)
		if err != nil {
			return err
		}
		if err := rec.Continue(strings.TrimSpace(p.Reason), r.now().UnixMilli()); err != nil {
			return err
		}
		view = rec.Clone()
		return nil
	})
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Status: StatusContinued, Loop: view}
}

// status returns the loop view. Read-only: no lock is taken, so the snapshot
// may trail concurrent mutators but is always internally consistent.
func (r *Registry) status(p Params) Response {
	if p.LoopID == "" {
		return errorResponse("loopId required")
	}

	doc := r.store.Load()
	rec, err := r.ownedLoop(doc, p.LoopID)
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Status: StatusOK, Loop: rec.Clone()}
}

// list returns the triage projection over the agent's own loops. Read-only
// and lock-free, like status.
func (r *Registry) list(p Params) Response {
	doc := r.store.Load()

	mine := make([]*loop.Loop, 0, len(doc.Loops))
	for _, rec := range doc.Loops {
		if rec.OwnerAgentID == r.agentID {
			mine = append(mine, rec)
		}
	}

	opts := triage.Options{
		State: p.State,
		View:  viewFromParam(p.View),
		Now:   r.now().UnixMilli(),
	}
	if p.StaleHours != nil {
		opts.StaleHours = *p.StaleHours
	}
	if p.Limit != nil {
		opts.Limit = int(*p.Limit)
	}

	return Response{Status: StatusOK, Loops: triage.List(mine, opts)}
}

// close moves the loop to its terminal state. Closing an already-closed loop
// is a success and returns the current record unchanged.
func (r *Registry) close(ctx context.Context, p Params) Response {
	if p.LoopID == "" {
		return errorResponse("loopId required")
	}

	var view *loop.Loop
	err := r.store.Update(ctx, func(doc *store.Document) error {
		rec, err := r.ownedLoop(doc, p.LoopID)
		if err != nil {
			return err
		}
		rec.Close(strings.TrimSpace(p.Reason), r.now().UnixMilli())
		view = rec.Clone()
		return nil
	})
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Status: StatusClosed, Loop: view}
}
