package shape

// MaxPreallocate caps the capacity reserved up front from an untrusted size
// hint.
const MaxPreallocate = 4096

// HintFromBounds turns a (lower, upper) length range into a size hint. The
// hint is known only when the upper bound exists and equals the lower one.
func HintFromBounds(lower, upper int, bounded bool) (int, bool) {
	if bounded && lower == upper {
		return upper, true
	}
	return 0, false
}

// Cautious returns the capacity to reserve for a collection whose length
// was reported as hint. Unknown or negative hints reserve nothing.
func Cautious(hint int, known bool) int {
	if !known || hint < 0 {
		return 0
	}
	return min(hint, MaxPreallocate)
}
