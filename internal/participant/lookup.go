package participant

// FindByNationalID returns the participants whose normalized national ID
// exactly matches the query after the same digits-only normalization. Order is
// preserved; an empty result is a valid outcome, not an error. A query with no
// digits matches nothing.
func (t Table) FindByNationalID(query string) Table {
	return t.findByDigits(query, func(p Participant) string { return p.NationalID })
}

// FindByPhone is the phone-number counterpart of FindByNationalID.
func (t Table) FindByPhone(query string) Table {
	return t.findByDigits(query, func(p Participant) string { return p.Phone })
}

func (t Table) findByDigits(query string, key func(Participant) string) Table {
	q := DigitsOnly(query)
	if q == "" {
		return Table{}
	}
	out := Table{}
	for _, p := range t {
		if key(p) == q {
			out = append(out, p)
		}
	}
	return out
}
