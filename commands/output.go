package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"

	"github.com/jet/privy/tokenbuf"
)

var qjson = jsoniter.ConfigCompatibleWithStandardLibrary

// PrivilegeInfo describes one privilege of a process token
type PrivilegeInfo struct {
	Name             string              `json:"name"`
	DisplayName      string              `json:"display_name"`
	Enabled          bool                `json:"enabled"`
	EnabledByDefault bool                `json:"enabled_by_default"`
	Attributes       tokenbuf.Attributes `json:"attributes"`
	IsRemoved        bool                `json:"is_removed"`
}

// RightInfo describes one account right and the accounts holding it
type RightInfo struct {
	Name         string   `json:"name"`
	ComputerName string   `json:"computer_name"`
	DisplayName  string   `json:"display_name"`
	Accounts     []string `json:"accounts"`
}

// Printer writes records as a table on a terminal and as JSON otherwise
type Printer struct {
	w    io.Writer
	json bool
}

// NewPrinter returns a printer for w. JSON is used when forced or when w is
// not a terminal.
func NewPrinter(w io.Writer, forceJSON bool) *Printer {
	return &Printer{w: w, json: forceJSON || !isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) encode(v interface{}) error {
	b, err := qjson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(b))
	return err
}

func (p *Printer) Privileges(infos []PrivilegeInfo) error {
	if infos == nil {
		infos = []PrivilegeInfo{}
	}
	if p.json {
		return p.encode(infos)
	}
	tw := tabwriter.NewWriter(p.w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tDEFAULT\tREMOVED\tDESCRIPTION")
	for _, i := range infos {
		fmt.Fprintf(tw, "%s\t%t\t%t\t%t\t%s\n", i.Name, i.Enabled, i.EnabledByDefault, i.IsRemoved, i.DisplayName)
	}
	return tw.Flush()
}

func (p *Printer) Rights(infos []RightInfo) error {
	if infos == nil {
		infos = []RightInfo{}
	}
	if p.json {
		return p.encode(infos)
	}
	tw := tabwriter.NewWriter(p.w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMPUTER\tACCOUNTS\tDESCRIPTION")
	for _, i := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i.Name, i.ComputerName, strings.Join(i.Accounts, ", "), i.DisplayName)
	}
	return tw.Flush()
}

// WhatIf reports an action that was not performed
func (p *Printer) WhatIf(format string, v ...interface{}) {
	fmt.Fprintf(p.w, "What if: "+format+"\n", v...)
}
