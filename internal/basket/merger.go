package basket

// Merge combines a guest basket into an account basket without touching either
// input. Quantities for matching keys are summed; lines unique to either side
// are kept. When both sides carry the same key the account line keeps its
// identity (name, unit price snapshot); only the quantity is summed.
//
// Merge is pure and deterministic: remote line order is preserved, then
// guest-only lines follow in their own order.
func Merge(guest, remote *Basket) *Basket {
	merged := remote.Clone()
	if guest.IsEmpty() {
		merged.Normalize()
		return merged
	}

	index := make(map[Key]int, len(merged.Lines))
	for i, line := range merged.Lines {
		index[line.Key()] = i
	}

	for _, line := range guest.Lines {
		if at, ok := index[line.Key()]; ok {
			merged.Lines[at].Quantity += line.Quantity
			continue
		}
		index[line.Key()] = len(merged.Lines)
		merged.Lines = append(merged.Lines, line)
	}

	merged.Normalize()
	return merged
}
