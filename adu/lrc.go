package adu

// lrc computes the MODBUS ASCII Longitudinal Redundancy Check: the
// two's-complement (negated, modulo-256) sum of the decoded bytes. Not
// grounded in the teacher, which only implements IP and RTU transports;
// grounded instead on the MODBUS ASCII framing described in spec.md §4.2
// and the GLOSSARY entry for LRC.
func lrc(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return byte(-int8(sum))
}
