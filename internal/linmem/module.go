package linmem

// memoryModule encodes the binary form of
//
//	(module (memory (export "memory") <pages>))
//
// which is all the heap needs from WebAssembly: a growable linear memory.
func memoryModule(pages uint32) []byte {
	bin := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	// memory section: one memory, limits without maximum.
	mem := append([]byte{0x01, 0x00}, uleb128(pages)...)
	bin = append(bin, 0x05)
	bin = append(bin, uleb128(uint32(len(mem)))...)
	bin = append(bin, mem...)

	// export section: "memory" -> memory index 0.
	exp := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}
	bin = append(bin, 0x07)
	bin = append(bin, uleb128(uint32(len(exp)))...)
	bin = append(bin, exp...)
	return bin
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
