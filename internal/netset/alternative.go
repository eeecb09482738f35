package netset

import (
	"context"
	"fmt"
	"path"
	"strings"

	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/storage"
)

// ResolveAlternative builds a binding from a user supplied directory. The
// directory must hold one sub-directory per role (names compared
// case-insensitively), each containing exactly one *.net file.
func ResolveAlternative(ctx context.Context, lister storage.Lister, dir string) (Binding, error) {
	var binding Binding

	names, err := lister.List(ctx, dir)
	if err != nil {
		return binding, apperrors.NewConfigError(fmt.Sprintf("cannot read alternative network directory %q", dir), err)
	}

	root := strings.Trim(path.Clean("/"+dir), "/")
	found := make(map[Role][]string)
	for _, name := range names {
		rel := strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		parts := strings.Split(rel, "/")
		if len(parts) != 2 || !strings.EqualFold(path.Ext(parts[1]), ".net") {
			continue
		}
		role, ok := ParseRole(parts[0])
		if !ok {
			continue
		}
		found[role] = append(found[role], name)
	}

	var problems []string
	for _, role := range Roles() {
		switch files := found[role]; len(files) {
		case 1:
			binding[role] = files[0]
		case 0:
			problems = append(problems, fmt.Sprintf("%s: no *.net file", role))
		default:
			problems = append(problems, fmt.Sprintf("%s: %d *.net files, expected exactly one", role, len(files)))
		}
	}
	if len(problems) > 0 {
		return binding, apperrors.NewConfigError(
			fmt.Sprintf("alternative network directory %q is incomplete", dir), nil,
		).WithDetails(strings.Join(problems, "; "))
	}
	return binding, nil
}
