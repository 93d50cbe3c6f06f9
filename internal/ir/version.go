package ir

// Version constants for IR schema and compiler.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// CompilerVersion is the canspec compiler version.
	CompilerVersion = "0.1.0"
)

// Frame capacity of a classical CAN data frame.
const (
	MaxFrameBytes = 8
	MaxFrameBits  = MaxFrameBytes * 8
)

// Identifier limits for standard (11-bit) and extended (29-bit) frames.
const (
	MaxStandardID = 0x7FF
	MaxExtendedID = 0x1FFFFFFF
)
