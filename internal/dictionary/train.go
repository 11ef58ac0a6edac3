package dictionary

// Train produces a raw dictionary for an extension group from its sample
// files, or nil if the group has too few samples to bother.
//
// Nx trains real ZDICT-style dictionaries in its reference implementation.
// This pack has no zstd dictionary-training binding (klauspost/compress
// exposes WithEncoderDict/WithDecoderDicts to *use* a raw dictionary, but no
// COVER/FastCOVER trainer to build one) — see DESIGN.md. Train instead
// gathers representative samples the way the original dictionary builder
// does (first MaxSampleBytes of each sample, bounded by MinTrainingSamples),
// concatenated as the dictionary's raw content; zstd accepts arbitrary
// bytes as a "raw content" dictionary, so this remains a valid, if less
// optimal, dictionary.
func Train(samples [][]byte) []byte {
	if len(samples) < MinTrainingSamples {
		return nil
	}

	var total int
	for _, s := range samples {
		n := len(s)
		if n > MaxSampleBytes {
			n = MaxSampleBytes
		}
		total += n
	}

	dict := make([]byte, 0, total)
	for _, s := range samples {
		n := len(s)
		if n > MaxSampleBytes {
			n = MaxSampleBytes
		}
		dict = append(dict, s[:n]...)
	}
	return dict
}
