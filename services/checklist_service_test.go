package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"complylaw-api/models"
)

func TestEnsureMutable(t *testing.T) {
	unlocked := &models.ChecklistSubmission{SubmissionID: "sub-1"}
	if err := EnsureMutable(unlocked); err != nil {
		t.Fatalf("unexpected error for unlocked submission: %v", err)
	}

	locked := &models.ChecklistSubmission{SubmissionID: "sub-1", IsLocked: true}
	if err := EnsureMutable(locked); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestIsValidResponseStatus(t *testing.T) {
	valid := []string{"pending", "yes", "no", "partial", "na"}
	for _, s := range valid {
		if !models.IsValidResponseStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "YES", "maybe", "done", "n/a", "Pending"}
	for _, s := range invalid {
		if models.IsValidResponseStatus(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

// responseLoadSteps scripts the three reads mutableResponse issues: the
// response row, then its submission and template preloads.
func responseLoadSteps(locked bool) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_responses` WHERE"),
			args:    []driver.Value{int64(7)},
			columns: []string{"response_id", "submission_id", "template_id", "status", "comment"},
			rows: [][]driver.Value{{
				int64(7), "sub-1", int64(3), "pending", "",
			}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_submissions` WHERE"),
			args:    []driver.Value{"sub-1"},
			columns: []string{"submission_id", "scan_id", "firm_id", "is_locked", "status", "created_at"},
			rows: [][]driver.Value{{
				"sub-1", int64(12), int64(4), locked, "draft", time.Now(),
			}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_templates` WHERE"),
			args:    []driver.Value{int64(3)},
			columns: []string{"template_id", "standard", "code", "risk_impact", "weight", "active"},
			rows: [][]driver.Value{{
				int64(3), "GDPR", "GDPR-SEC-01", "HIGH", float64(3.0), true,
			}},
		},
	}
}

func TestUpdateResponseLockedSubmission(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, responseLoadSteps(true))
	defer cleanup()

	svc := NewChecklistService(db)
	status := models.ResponseStatusYes
	_, err := svc.UpdateResponse(7, 4, UpdateResponseInput{Status: &status})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// No UPDATE was scripted; an attempted write would have failed loudly.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateResponseInvalidStatus(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, responseLoadSteps(false))
	defer cleanup()

	svc := NewChecklistService(db)
	status := "definitely-not-a-status"
	_, err := svc.UpdateResponse(7, 4, UpdateResponseInput{Status: &status})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateResponseWrongFirm(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, responseLoadSteps(false))
	defer cleanup()

	svc := NewChecklistService(db)
	status := models.ResponseStatusYes
	// Firm 9 does not own submission sub-1 (firm 4); reported as missing.
	_, err := svc.UpdateResponse(7, 9, UpdateResponseInput{Status: &status})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateResponseWritesStatusAndComment(t *testing.T) {
	steps := append(responseLoadSteps(false), &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("UPDATE `checklist_responses` SET"),
		args:    []driver.Value{"policy attached", "yes", int64(7)},
		result:  scriptedResult{rowsAffected: 1},
	})
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewChecklistService(db)
	status := models.ResponseStatusYes
	comment := "policy attached"
	response, err := svc.UpdateResponse(7, 4, UpdateResponseInput{Status: &status, Comment: &comment})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Status != models.ResponseStatusYes || response.Comment != "policy attached" {
		t.Fatalf("response not updated in place: %+v", response)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAddEvidenceLockedSubmission(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, responseLoadSteps(true))
	defer cleanup()

	svc := NewChecklistService(db)
	_, err := svc.AddEvidence(7, 4, &models.EvidenceFile{Filename: "policy.pdf"})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// No INSERT was scripted; an attempted write would have failed loudly.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// evidenceLoadSteps scripts the reads RemoveEvidence issues: the evidence
// row, then its response and submission preloads.
func evidenceLoadSteps(locked bool) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `evidence_files` WHERE"),
			args:    []driver.Value{int64(5)},
			columns: []string{"evidence_id", "response_id", "stored_path", "filename"},
			rows: [][]driver.Value{{
				int64(5), int64(7), "/data/uploads/evidence/2026/01/02/policy.pdf", "policy.pdf",
			}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_responses` WHERE"),
			args:    []driver.Value{int64(7)},
			columns: []string{"response_id", "submission_id", "template_id", "status", "comment"},
			rows: [][]driver.Value{{
				int64(7), "sub-1", int64(3), "yes", "",
			}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_submissions` WHERE"),
			args:    []driver.Value{"sub-1"},
			columns: []string{"submission_id", "scan_id", "firm_id", "is_locked", "status", "created_at"},
			rows: [][]driver.Value{{
				"sub-1", int64(12), int64(4), locked, "draft", time.Now(),
			}},
		},
	}
}

func TestRemoveEvidenceLockedSubmission(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, evidenceLoadSteps(true))
	defer cleanup()

	svc := NewChecklistService(db)
	_, err := svc.RemoveEvidence(5, 4)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// No DELETE was scripted; the row provably survived.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRemoveEvidenceWrongFirm(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, evidenceLoadSteps(false))
	defer cleanup()

	svc := NewChecklistService(db)
	_, err := svc.RemoveEvidence(5, 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRemoveEvidenceDeletesRow(t *testing.T) {
	steps := append(evidenceLoadSteps(false), &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("DELETE FROM `evidence_files` WHERE"),
		args:    []driver.Value{int64(5)},
		result:  scriptedResult{rowsAffected: 1},
	})
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewChecklistService(db)
	evidence, err := svc.RemoveEvidence(5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evidence.StoredPath != "/data/uploads/evidence/2026/01/02/policy.pdf" {
		t.Fatalf("stored path not returned for disk cleanup: %+v", evidence)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func submissionStep(locked bool, args ...driver.Value) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `checklist_submissions` WHERE"),
		args:    args,
		columns: []string{"submission_id", "scan_id", "firm_id", "is_locked", "status", "created_at"},
		rows: [][]driver.Value{{
			"sub-1", int64(12), int64(4), locked, "draft", time.Now(),
		}},
	}
}

func TestCompleteAlreadyLocked(t *testing.T) {
	// complete() on a completed submission fails loudly instead of
	// re-locking: the transition is one-way and happens once.
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		submissionStep(true, "sub-1", int64(4)),
	})
	defer cleanup()

	svc := NewChecklistService(db)
	_, err := svc.Complete("sub-1", 4, 1)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCompleteRequiresFullCompletion(t *testing.T) {
	steps := []*queryStep{
		submissionStep(false, "sub-1", int64(4)),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT checklist_responses\\..* FROM `checklist_responses` JOIN"),
			args:    []driver.Value{"sub-1"},
			columns: []string{"response_id", "submission_id", "template_id", "status", "comment"},
			rows: [][]driver.Value{
				{int64(1), "sub-1", int64(3), "yes", ""},
				{int64(2), "sub-1", int64(4), "pending", ""},
			},
		},
		{
			// Evidence preload, then Template preload (alphabetical).
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `evidence_files` WHERE"),
			args:    []driver.Value{int64(1), int64(2)},
			columns: []string{"evidence_id", "response_id", "filename"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `checklist_templates` WHERE"),
			args:    []driver.Value{int64(3), int64(4)},
			columns: []string{"template_id", "standard", "code", "risk_impact", "weight", "active"},
			rows: [][]driver.Value{
				{int64(3), "GDPR", "GDPR-SEC-01", "HIGH", float64(3.0), true},
				{int64(4), "GDPR", "GDPR-GOV-01", "MEDIUM", float64(2.0), true},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewChecklistService(db)
	svc.RequireFullCompletion = true

	_, err := svc.Complete("sub-1", 4, 1)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestOpenSubmissionIdempotent(t *testing.T) {
	scanStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `scan_results` WHERE"),
			args:    []driver.Value{int64(12), int64(4)},
			columns: []string{"scan_id", "scan_ref", "firm_id", "domain", "status", "scan_date"},
			rows: [][]driver.Value{{
				int64(12), "a1b2c3d4", int64(4), "example.com", "COMPLETED", time.Now(),
			}},
		}
	}
	responsesStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT checklist_responses\\..* FROM `checklist_responses` JOIN"),
			args:    []driver.Value{"sub-1"},
			columns: []string{"response_id", "submission_id", "template_id", "status", "comment"},
			rows:    [][]driver.Value{},
		}
	}

	// Two opens of the same scan: both find the existing submission and
	// materialize nothing.
	steps := []*queryStep{
		scanStep(),
		submissionStep(false, int64(12)),
		responsesStep(),
		scanStep(),
		submissionStep(false, int64(12)),
		responsesStep(),
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewChecklistService(db)

	first, _, err := svc.OpenSubmission(12, 4)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	second, _, err := svc.OpenSubmission(12, 4)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if first.SubmissionID != second.SubmissionID {
		t.Fatalf("expected same submission, got %s and %s", first.SubmissionID, second.SubmissionID)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmissionWithResponsesLoadsSubmissionOnce(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		submissionStep(false, "sub-1", int64(4)),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT checklist_responses\\..* FROM `checklist_responses` JOIN"),
			args:    []driver.Value{"sub-1"},
			columns: []string{"response_id", "submission_id", "template_id", "status", "comment"},
			rows:    [][]driver.Value{},
		},
	})
	defer cleanup()

	svc := NewChecklistService(db)
	submission, responses, err := svc.SubmissionWithResponses("sub-1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submission.SubmissionID != "sub-1" || len(responses) != 0 {
		t.Fatalf("unexpected result: %+v, %d responses", submission, len(responses))
	}

	// Exactly one submission read was scripted; a second would have been
	// off-script.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestOpenSubmissionScanNotFound(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `scan_results` WHERE"),
			args:    []driver.Value{int64(99), int64(4)},
			columns: []string{"scan_id"},
			rows:    [][]driver.Value{},
		},
	})
	defer cleanup()

	svc := NewChecklistService(db)
	_, _, err := svc.OpenSubmission(99, 4)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
