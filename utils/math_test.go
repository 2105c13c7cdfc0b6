package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversion(t *testing.T) {
	test.That(t, RadToDeg(math.Pi), test.ShouldAlmostEqual, 180)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(1.0000001, -1, 1), test.ShouldEqual, 1)
	test.That(t, Clamp(-1.0000001, -1, 1), test.ShouldEqual, -1)
	test.That(t, Clamp(0.5, -1, 1), test.ShouldEqual, 0.5)
}

func TestAllFinite(t *testing.T) {
	test.That(t, AllFinite(1, 2, 3), test.ShouldBeTrue)
	test.That(t, AllFinite(1, math.NaN()), test.ShouldBeFalse)
	test.That(t, AllFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, AllFinite(), test.ShouldBeTrue)
}
