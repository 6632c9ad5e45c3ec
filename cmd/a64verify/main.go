// a64verify marks every 32-bit word of a cell file that the disassembler
// does not decode as exactly one AArch64 instruction.
//
//	a64verify <cell-file>
package main

import (
	"os"

	"github.com/colorfulnotion/a64map/cli"
)

func main() {
	cli.Main(cli.NewVerifyCmd(os.Stdout))
}
