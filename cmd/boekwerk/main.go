// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"github.com/boekwerk/boekwerk-cli/internal/commands"
)

func main() {
	commands.Execute()
}
