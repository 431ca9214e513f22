// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/aws"
)

// AccountInfo shows the AWS profile, region and account.
type AccountInfo struct {
	*tview.Table

	profile   string
	region    string
	accountID string
	version   string
}

// NewAccountInfo creates a new account info display.
func NewAccountInfo() *AccountInfo {
	a := AccountInfo{Table: tview.NewTable()}
	a.SetBorder(true)
	a.SetBorderColor(tcell.ColorDarkCyan)
	a.SetBorderPadding(0, 0, 1, 1)
	a.SetBackgroundColor(tcell.ColorDefault)
	a.SetSelectable(false, false)

	return &a
}

// SetInfo updates the displayed account information.
func (a *AccountInfo) SetInfo(profile, region, accountID, version string) {
	a.profile, a.region, a.accountID, a.version = profile, region, accountID, version
	a.refresh()
}

func (a *AccountInfo) refresh() {
	a.Clear()

	profile := a.profile
	if profile == "" {
		profile = aws.DefaultProfile
	}
	region := a.region
	if region == "" {
		region = aws.DefaultRegion
	}
	account := a.accountID
	if account == "" {
		account = "n/a"
	}

	a.SetCell(0, 0, tview.NewTableCell("[::b]"+profile+"[-::]@"+region).
		SetTextColor(tcell.ColorDarkCyan))
	a.SetCell(1, 0, tview.NewTableCell(account+" [gray::](v"+a.version+")[-::]").
		SetTextColor(tcell.ColorWhite))
}
