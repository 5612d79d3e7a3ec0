// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dotenv

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// credentialsFileMode keeps the credentials file private to the operator.
const credentialsFileMode = 0o600

// Skeleton is written when neither a credentials file nor a template exists.
const Skeleton = `# Canvas API credentials
CANVAS_ACCESS_TOKEN=your_canvas_token_here
CANVAS_DOMAIN=canvas.your_institution.edu

# Gradescope credentials
GRADESCOPE_EMAIL=your_email@your_institution.edu
GRADESCOPE_PASSWORD=your_gradescope_password
`

// Placeholders returns the placeholder credentials from Skeleton. They are
// shown in manual configuration instructions.
func Placeholders() Vars {
	return Vars{
		"CANVAS_ACCESS_TOKEN": "your_canvas_token_here",
		"CANVAS_DOMAIN":       "canvas.your_institution.edu",
		"GRADESCOPE_EMAIL":    "your_email@your_institution.edu",
		"GRADESCOPE_PASSWORD": "your_gradescope_password",
	}
}

// WriteSkeleton creates path with the built-in skeleton. It refuses to
// overwrite an existing file.
func WriteSkeleton(path string) error {
	// #nosec G304 -- path is the operator's own credentials file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, credentialsFileMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(Skeleton); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// CopyTemplate copies the template at src to dst. It refuses to overwrite an
// existing dst.
func CopyTemplate(src, dst string) (err error) {
	// #nosec G304 -- src is the template shipped next to the credentials file
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open template %s: %w", src, err)
	}
	defer in.Close()

	// #nosec G304 -- dst is the operator's own credentials file
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, credentialsFileMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy template to %s: %w", dst, err)
	}
	return nil
}
