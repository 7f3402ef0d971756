package classparser

import (
	"fmt"
	"strings"

	"github.com/openkraft/archverify/internal/domain"
)

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// parseFieldType decodes one field type starting at desc[i] and returns its
// source-style name ("int", "java.lang.String[]") and the next offset.
func parseFieldType(desc string, i int) (string, int, error) {
	dims := 0
	for i < len(desc) && desc[i] == '[' {
		dims++
		i++
	}
	if i >= len(desc) {
		return "", 0, fmt.Errorf("%w: truncated descriptor %q", domain.ErrStructural, desc)
	}

	var name string
	switch c := desc[i]; c {
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return "", 0, fmt.Errorf("%w: unterminated class in descriptor %q", domain.ErrStructural, desc)
		}
		name = strings.ReplaceAll(desc[i+1:i+end], "/", ".")
		i += end + 1
	default:
		base, ok := baseTypes[c]
		if !ok {
			return "", 0, fmt.Errorf("%w: bad descriptor character %q in %q", domain.ErrStructural, c, desc)
		}
		name = base
		i++
	}
	return name + strings.Repeat("[]", dims), i, nil
}

// FieldType decodes a complete field descriptor.
func FieldType(desc string) (string, error) {
	name, next, err := parseFieldType(desc, 0)
	if err != nil {
		return "", err
	}
	if next != len(desc) {
		return "", fmt.Errorf("%w: trailing data in field descriptor %q", domain.ErrStructural, desc)
	}
	return name, nil
}

// MethodType decodes a method descriptor into parameter types and the return
// type ("void" for V).
func MethodType(desc string) (params []string, ret string, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", fmt.Errorf("%w: method descriptor %q does not start with '('", domain.ErrStructural, desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		var p string
		if p, i, err = parseFieldType(desc, i); err != nil {
			return nil, "", err
		}
		params = append(params, p)
	}
	if i >= len(desc) {
		return nil, "", fmt.Errorf("%w: unterminated parameters in %q", domain.ErrStructural, desc)
	}
	i++
	if desc[i:] == "V" {
		return params, "void", nil
	}
	ret, next, err := parseFieldType(desc, i)
	if err != nil {
		return nil, "", err
	}
	if next != len(desc) {
		return nil, "", fmt.Errorf("%w: trailing data in method descriptor %q", domain.ErrStructural, desc)
	}
	return params, ret, nil
}

// SourceName converts an internal class name, or an array descriptor as
// found in Class constants, to source form.
func SourceName(internal string) (string, error) {
	if strings.HasPrefix(internal, "[") {
		return FieldType(internal)
	}
	return strings.ReplaceAll(internal, "/", "."), nil
}
