package status

// SizedCall performs one native call with an output buffer of size units
// (allocating it first) and returns the translated result. Size zero is the
// probe.
type SizedCall func(size uint32) Result

// Sized drives the probe, allocate, fill protocol for a native function that
// reports the buffer size it needs.
//
// The probe is made with size zero. If it succeeds outright there is nothing
// to fill and its result is returned. If it asks for a buffer, exactly one
// more call is made with the reported size. The fill may report a different
// length than the probe; a shorter one is fine, anything that does not fit the
// allocation is a *BufferProtocolError. The call is never retried a third time.
func Sized(call SizedCall) (Result, error) {
	probe := call(0)
	switch probe.Outcome {
	case Success:
		return probe, nil
	case RetryWithBuffer:
	default:
		return probe, probe.Err()
	}
	if probe.Size == 0 {
		return probe, &BufferProtocolError{
			Op:     probe.Op,
			Reason: "probe asked for a buffer without reporting a size",
		}
	}
	fill := call(probe.Size)
	switch fill.Outcome {
	case Success:
		if fill.Size > probe.Size {
			return fill, &BufferProtocolError{
				Op:       fill.Op,
				Probed:   probe.Size,
				Reported: fill.Size,
				Reason:   "reported length exceeds the allocated buffer",
			}
		}
		return fill, nil
	case RetryWithBuffer:
		return fill, &BufferProtocolError{
			Op:       fill.Op,
			Probed:   probe.Size,
			Reported: fill.Size,
			Reason:   "buffer of the probed size was still too small",
		}
	}
	return fill, fill.Err()
}
