package fees

import (
	"testing"

	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
)

func TestTotalAmountAddsFixedFee(t *testing.T) {
	total, err := TotalAmount(1500)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2700 {
		t.Fatalf("total = %d, want 2700", total)
	}
}

func TestTotalAmountStable(t *testing.T) {
	first, err := TotalAmount(2000)
	if err != nil {
		t.Fatal(err)
	}
	second, err := TotalAmount(2000)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("totals diverged: %d vs %d", first, second)
	}
}

func TestTotalAmountRejectsNonPositive(t *testing.T) {
	for _, amount := range []int64{0, -1, -1200} {
		_, err := TotalAmount(amount)
		if err == nil {
			t.Fatalf("expected error for amount %d", amount)
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}
