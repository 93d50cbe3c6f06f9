package compiler

// isIdentifier reports whether s is an ASCII identifier,
// [A-Za-z_][A-Za-z0-9_]*.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// cppReserved lists C++ keywords, alternative operator tokens and the macros
// of <cstdint> that the generated header expands.
var cppReserved = setOf(
	"alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor",
	"bool", "break", "case", "catch", "char", "char8_t", "char16_t", "char32_t",
	"class", "co_await", "co_return", "co_yield", "compl", "concept", "const",
	"const_cast", "consteval", "constexpr", "constinit", "continue", "decltype",
	"default", "delete", "do", "double", "dynamic_cast", "else", "enum",
	"explicit", "export", "extern", "false", "float", "for", "friend", "goto",
	"if", "inline", "int", "long", "mutable", "namespace", "new", "noexcept",
	"not", "not_eq", "nullptr", "operator", "or", "or_eq", "private",
	"protected", "public", "register", "reinterpret_cast", "requires", "return",
	"short", "signed", "sizeof", "static", "static_assert", "static_cast",
	"struct", "switch", "template", "this", "thread_local", "throw", "true",
	"try", "typedef", "typeid", "typename", "union", "unsigned", "using",
	"virtual", "void", "volatile", "wchar_t", "while", "xor", "xor_eq",
	"NULL", "UINT64_MAX", "UINT64_C",
)

// headerSymbols are the names the generated header declares or uses
// unqualified at namespace scope, and the locals of its routines. Types and
// messages become namespace-scope names, so they must avoid these too.
var headerSymbols = setOf(
	"MessageId", "read_bits", "write_bits", "max_code", "quantize", "pack",
	"encode", "std", "uint8_t", "uint32_t", "uint64_t",
	"self", "value", "code", "buffer", "offset", "payload", "os", "i",
)

// isReservedName reports whether s cannot name a field or enum variant in
// the generated header.
func isReservedName(s string) bool {
	return cppReserved[s]
}

// isReservedTypeName reports whether s cannot name a struct, enum or
// message. The built-in bool is left to the registry, which reports it as a
// duplicate.
func isReservedTypeName(s string) bool {
	if s == "bool" {
		return false
	}
	return cppReserved[s] || headerSymbols[s]
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
