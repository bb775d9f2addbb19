package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

func TestRequestAuthorization_GrantsUndetermined(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	ok, err := db.RequestAuthorization(ctx, health.AllMetrics)
	if err != nil || !ok {
		t.Fatalf("RequestAuthorization = %v, %v; want true, nil", ok, err)
	}

	for _, kind := range health.AllMetrics {
		status, err := db.AuthorizationStatus(ctx, kind)
		if err != nil {
			t.Fatalf("AuthorizationStatus(%s) failed: %v", kind, err)
		}
		if status != AuthGranted {
			t.Errorf("%s status = %s, want granted", kind, status)
		}
	}

	// Asking again is harmless.
	if ok, err := db.RequestAuthorization(ctx, health.AllMetrics); err != nil || !ok {
		t.Errorf("second RequestAuthorization = %v, %v", ok, err)
	}
}

func TestRequestAuthorization_KeepsDenials(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.SetAuthorization(ctx, health.Distance, AuthDenied)

	ok, err := db.RequestAuthorization(ctx, health.AllMetrics)
	if err != nil || !ok {
		t.Fatalf("partial denial should still grant access: %v, %v", ok, err)
	}
	status, _ := db.AuthorizationStatus(ctx, health.Distance)
	if status != AuthDenied {
		t.Errorf("distance status = %s, want denied", status)
	}

	w := health.WeeklyWindow(time.Now())
	_, err = db.QueryCumulativeSum(ctx, health.Distance, w.Start, w.End, health.DailyInterval)
	if !errors.Is(err, health.ErrNotAuthorized) {
		t.Errorf("denied metric query err = %v, want ErrNotAuthorized", err)
	}
}

func TestRequestAuthorization_AllDenied(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, kind := range health.AllMetrics {
		_ = db.SetAuthorization(ctx, kind, AuthDenied)
	}

	ok, err := db.RequestAuthorization(ctx, health.AllMetrics)
	if ok {
		t.Error("expected access to be refused")
	}
	if !errors.Is(err, health.ErrAuthorizationDenied) {
		t.Errorf("err = %v, want ErrAuthorizationDenied", err)
	}
}

func TestAuthorizationStatus_DefaultsToNotDetermined(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	status, err := db.AuthorizationStatus(context.Background(), health.ActiveEnergy)
	if err != nil {
		t.Fatalf("AuthorizationStatus failed: %v", err)
	}
	if status != AuthNotDetermined {
		t.Errorf("status = %s, want not_determined", status)
	}
}

func TestParseAuthStatus(t *testing.T) {
	for _, s := range []string{"granted", "denied", "not_determined"} {
		if _, err := ParseAuthStatus(s); err != nil {
			t.Errorf("ParseAuthStatus(%q) error: %v", s, err)
		}
	}
	if _, err := ParseAuthStatus("maybe"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestImports_RecordAndDigest(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	digest, err := db.ImportedDigest(ctx, "/tmp/export.json")
	if err != nil || digest != "" {
		t.Fatalf("unknown path digest = %q, %v", digest, err)
	}

	if err := db.RecordImport(ctx, ImportRecord{Path: "/tmp/export.json", Digest: "abc", Samples: 3}); err != nil {
		t.Fatalf("RecordImport failed: %v", err)
	}
	if err := db.RecordImport(ctx, ImportRecord{Path: "/tmp/export.json", Digest: "def", Samples: 4}); err != nil {
		t.Fatalf("RecordImport update failed: %v", err)
	}

	digest, _ = db.ImportedDigest(ctx, "/tmp/export.json")
	if digest != "def" {
		t.Errorf("digest = %q, want def", digest)
	}

	recent, err := db.RecentImports(ctx, 5)
	if err != nil {
		t.Fatalf("RecentImports failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Samples != 4 {
		t.Errorf("recent = %+v, want one record with 4 samples", recent)
	}
}
