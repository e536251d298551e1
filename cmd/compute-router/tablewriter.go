package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
)

type VisualTable struct {
	Header []string
	Data   [][]string
}

func NewVisualTable(header []string, data [][]string) *VisualTable {
	return &VisualTable{
		Header: header,
		Data:   data,
	}
}

func (v *VisualTable) Generate() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(v.Header)
	table.SetRowLine(true)

	for _, datum := range v.Data {
		table.Append(datum)
	}
	table.Render()
}
