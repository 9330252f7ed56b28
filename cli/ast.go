// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

// Command is the grammar of one line typed at the cellsim prompt.
type Command struct {
	Cells *CellsCmd `  @@` //nolint
	Exit  *ExitCmd  `| @@` //nolint
	Go    *GoCmd    `| @@` //nolint
	Help  *HelpCmd  `| @@` //nolint
	Kpi   *KpiCmd   `| @@` //nolint
	Log   *LogCmd   `| @@` //nolint
	Rem   *RemCmd   `| @@` //nolint
	Time  *TimeCmd  `| @@` //nolint
	Ue    *UeCmd    `| @@` //nolint
	Ues   *UesCmd   `| @@` //nolint
}

// noinspection GoStructTag
type CellsCmd struct {
	Cmd struct{} `"cells"` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd     struct{}  `"go"`                    //nolint
	Seconds float64   `( (@Int|@Float) [ "s" ]` //nolint
	Ever    *EverFlag `| @@ )`                  //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd struct{} `"help"` //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd struct{} `"kpi"` //nolint
}

// noinspection GoStructTag
type LogCmd struct {
	Cmd   struct{} `"log"`      //nolint
	Level string   `[ @Ident ]` //nolint
}

// noinspection GoStructTag
type RemCmd struct {
	Cmd  struct{} `"rem"`                //nolint
	File string   `[ @String | @Ident ]` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type UeCmd struct {
	Cmd struct{} `"ue"` //nolint
	Id  int      `@Int` //nolint
}

// noinspection GoStructTag
type UesCmd struct {
	Cmd struct{} `"ues"` //nolint
}
