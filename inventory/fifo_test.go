package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/zoneflow/inventory"
)

func TestFIFO_OldestResidentMustLeaveFirst(t *testing.T) {
	// GIVEN: Three pallets of increasing age in the FIFO-required FG Store
	// WHEN: The newest one tries to move out
	// THEN: The violation names the oldest resident; moving the oldest works

	ctx := context.Background()
	svc, mem, clock := newFixture(t)
	seedPallet(t, mem, clock, "FG-DET-00001", "FG-DET-500G", "FG Store", 60, 48*time.Hour)
	seedPallet(t, mem, clock, "FG-DET-00002", "FG-DET-500G", "FG Store", 60, 24*time.Hour)
	seedPallet(t, mem, clock, "FG-DET-00003", "FG-DET-500G", "FG Store", 60, 12*time.Hour)

	_, err := svc.InitiateMove(ctx, inventory.MoveInput{PalletID: "FG-DET-00003", ToZone: "Dispatch", MovedBy: "op-1"})
	var violation *inventory.FifoViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected FifoViolationError, got %v", err)
	}
	if violation.RequiredPallet != "FG-DET-00001" {
		t.Errorf("violation should name the oldest resident, got %s", violation.RequiredPallet)
	}

	if _, err := svc.InitiateMove(ctx, inventory.MoveInput{PalletID: "FG-DET-00001", ToZone: "Dispatch", MovedBy: "op-1"}); err != nil {
		t.Fatalf("oldest pallet should be free to leave: %v", err)
	}
}

func TestFIFO_InTransitAndConsumedResidentsDoNotBlock(t *testing.T) {
	// GIVEN: The oldest pallet already in transit and the next one consumed
	// WHEN: The third pallet tries to leave
	// THEN: It is the effective oldest and may move

	ctx := context.Background()
	svc, mem, clock := newFixture(t)
	oldest := seedPallet(t, mem, clock, "FG-DET-00001", "FG-DET-500G", "FG Store", 60, 72*time.Hour)
	oldest.InTransit = &inventory.TransitInfo{ToZone: "Dispatch", MovementID: "mv-test", InitiatedAt: clock.Now(), InitiatedBy: "op-1"}
	if err := mem.SavePallet(ctx, oldest); err != nil {
		t.Fatalf("save: %v", err)
	}
	consumed := seedPallet(t, mem, clock, "FG-DET-00002", "FG-DET-500G", "FG Store", 60, 48*time.Hour)
	consumed.Status = inventory.StatusConsumed
	if err := mem.SavePallet(ctx, consumed); err != nil {
		t.Fatalf("save: %v", err)
	}
	seedPallet(t, mem, clock, "FG-DET-00003", "FG-DET-500G", "FG Store", 60, 12*time.Hour)

	if _, err := svc.InitiateMove(ctx, inventory.MoveInput{PalletID: "FG-DET-00003", ToZone: "Dispatch", MovedBy: "op-1"}); err != nil {
		t.Fatalf("expected move to pass, got %v", err)
	}
}

func TestFIFO_OverrideReasonSkipsTheCheck(t *testing.T) {
	// GIVEN: A newer pallet blocked behind an older resident
	// WHEN: The move carries an override reason
	// THEN: The FIFO check is skipped and the reason lands in the ledger

	ctx := context.Background()
	svc, mem, clock := newFixture(t)
	seedPallet(t, mem, clock, "FG-DET-00001", "FG-DET-500G", "FG Store", 60, 48*time.Hour)
	seedPallet(t, mem, clock, "FG-DET-00002", "FG-DET-500G", "FG Store", 60, 12*time.Hour)

	movementID, err := svc.InitiateMove(ctx, inventory.MoveInput{
		PalletID:       "FG-DET-00002",
		ToZone:         "Dispatch",
		MovedBy:        "sup-1",
		OverrideReason: "customer recall pull",
	})
	if err != nil {
		t.Fatalf("override move failed: %v", err)
	}
	entry, err := mem.GetMovement(ctx, movementID)
	if err != nil || entry == nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.OverrideReason != "customer recall pull" {
		t.Errorf("override reason not recorded: %q", entry.OverrideReason)
	}
}

func TestFIFO_NonFIFOZoneIsUnrestricted(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newFixture(t)
	seedPallet(t, mem, clock, "PCK-00001", "FG-DET-500G", "Packing", 60, 48*time.Hour)
	seedPallet(t, mem, clock, "PCK-00002", "FG-DET-500G", "Packing", 60, 12*time.Hour)

	if _, err := svc.InitiateMove(ctx, inventory.MoveInput{PalletID: "PCK-00002", ToZone: "Dispatch", MovedBy: "op-1"}); err != nil {
		t.Fatalf("non-FIFO zone should not order departures: %v", err)
	}
}
