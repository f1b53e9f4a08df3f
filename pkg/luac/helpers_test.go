package luac

// stockHeader is the header of a stock 32-bit little-endian luac build.
func stockHeader() Header {
	return Header{
		Format:          0,
		Endianness:      LittleEndian,
		IntSize:         4,
		SizeTSize:       4,
		InstructionSize: 4,
		NumberSize:      8,
	}
}
