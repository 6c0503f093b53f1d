package commands

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jet/privy/privilege"
	"github.com/jet/privy/rights"
	"github.com/jet/privy/status"
	"github.com/jet/privy/win32"
)

// RightAction is the change made to the holders of a right
type RightAction int

const (
	AddRight RightAction = iota + 1
	RemoveRight
)

func (r RightAction) String() string {
	switch r {
	case AddRight:
		return "add"
	case RemoveRight:
		return "remove"
	}
	return "unknown"
}

// RightsChange is the set of rights to add to or remove from one account
type RightsChange struct {
	SID    win32.SID
	Rights []string
}

// RightsPlan groups the rights to change by account
type RightsPlan struct {
	// Changes has one entry per account, ordered by SID
	Changes []RightsChange
	// Failed holds the right names that could not be enumerated
	Failed map[string]error
}

// PlanRights compares the holders of every right in names with accounts.
// Repeated accounts count once. Adding skips the accounts that already hold the right; removing skips the
// accounts that do not.
func PlanRights(p *rights.Policy, names []string, accounts []win32.SID, action RightAction) (*RightsPlan, error) {
	plan := &RightsPlan{Failed: make(map[string]error)}
	accounts = uniqueSIDs(accounts)
	bySID := make(map[string]*RightsChange)
	for _, right := range names {
		holders, err := p.EnumerateAccountsForRight(right)
		if errors.Is(err, status.ErrInvalidName) {
			plan.Failed[right] = err
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, sid := range accounts {
			if holds(holders, sid) == (action == AddRight) {
				continue
			}
			key := sid.String()
			c, ok := bySID[key]
			if !ok {
				c = &RightsChange{SID: sid}
				bySID[key] = c
			}
			c.Rights = append(c.Rights, right)
		}
	}
	keys := make([]string, 0, len(bySID))
	for k := range bySID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		plan.Changes = append(plan.Changes, *bySID[k])
	}
	return plan, nil
}

// uniqueSIDs drops repeated accounts, keeping the first occurrence
func uniqueSIDs(sids []win32.SID) []win32.SID {
	seen := make(map[string]bool, len(sids))
	out := make([]win32.SID, 0, len(sids))
	for _, sid := range sids {
		if seen[sid.String()] {
			continue
		}
		seen[sid.String()] = true
		out = append(out, sid)
	}
	return out
}

func holds(holders []win32.SID, sid win32.SID) bool {
	for _, h := range holders {
		if h.Equal(sid) {
			return true
		}
	}
	return false
}

// knownRights are the names offered for pattern expansion and listed by
// default: every privilege and every logon right
func knownRights() []string {
	names := append(privilege.Names(), rights.LogonRightNames()...)
	sort.Strings(names)
	return names
}

func (a *App) rightCommand() *cobra.Command {
	var accounts []string
	cmd := &cobra.Command{
		Use:   "right",
		Short: "Manage the account rights in the LSA policy",
	}
	cmd.PersistentFlags().StringSliceVarP(&accounts, "account", "a", nil, "Account name or SID (repeatable)")

	var sids bool
	get := &cobra.Command{
		Use:   "get [NAME...]",
		Short: "Show account rights and the accounts holding them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(accounts) > 1 {
				return errors.New("get takes at most one --account")
			}
			return a.rightGet(args, accounts, sids)
		},
	}
	get.Flags().BoolVar(&sids, "sid", false, "List holders as SIDs instead of account names")

	cmd.AddCommand(
		get,
		&cobra.Command{
			Use:   "add NAME... --account ACCOUNT...",
			Short: "Grant rights to accounts",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.rightChange(args, accounts, AddRight)
			},
		},
		&cobra.Command{
			Use:   "remove NAME... --account ACCOUNT...",
			Short: "Revoke rights from accounts",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.rightChange(args, accounts, RemoveRight)
			},
		},
		&cobra.Command{
			Use:   "clear NAME... | --account ACCOUNT...",
			Short: "Remove every holder of rights, or every right of accounts",
			RunE: func(cmd *cobra.Command, args []string) error {
				switch {
				case len(args) > 0 && len(accounts) > 0:
					return errors.New("clear takes either right names or --account, not both")
				case len(args) > 0:
					return a.rightClearNames(args)
				case len(accounts) > 0:
					return a.rightClearAccounts(accounts)
				}
				return errors.New("clear needs right names or --account")
			},
		},
	)
	return cmd
}

func (a *App) openPolicy(access rights.AccessMask) (*rights.Policy, error) {
	if a.Natives.Policy == nil {
		return nil, errors.New("privy: no policy API available")
	}
	a.logger.Debugf("opening LSA policy with access 0x%x", uint32(access))
	return rights.Open(a.Natives.Policy, a.system(), access)
}

func (a *App) closePolicy(p *rights.Policy) {
	a.logger.Error(p.Close(), "unable to close LSA policy")
}

// resolveAccounts translates account arguments; the ones that fail are
// logged as failures and left out
func (a *App) resolveAccounts(accounts []string) []win32.SID {
	var sids []win32.SID
	failed := make(map[string]error)
	for _, account := range accounts {
		sid, err := ResolveAccount(a.Natives.Accounts, a.system(), account)
		if err != nil {
			failed[account] = err
			continue
		}
		sids = append(sids, sid)
	}
	a.fail(failed)
	return sids
}

// accountName names sid for output, falling back to the SID string
func (a *App) accountName(sid win32.SID) string {
	if a.Natives.Accounts != nil {
		name, err := a.Natives.Accounts.LookupAccount(a.system(), sid)
		if err == nil {
			return name
		}
		a.logger.Warnf("failed to translate SID %s to an account name: %v", sid, err)
	}
	return sid.String()
}

func (a *App) describeRight(e *privilege.Engine, right string) string {
	if d, ok := rights.Description(right); ok {
		return d
	}
	if e != nil {
		if ok, err := e.CheckName(right); err == nil && ok {
			if d, err := e.DisplayName(right); err == nil {
				return d
			}
		}
	}
	a.logger.Warnf("unknown right %s, cannot get description", right)
	return ""
}

// rightGet lists rights and their holders. Holders are translated to
// account names unless sids is set.
func (a *App) rightGet(args []string, accounts []string, sids bool) error {
	p, err := a.openPolicy(rights.EnumerateAccess)
	if err != nil {
		return err
	}
	defer a.closePolicy(p)

	names := knownRights()
	if len(args) > 0 {
		if names, err = ExpandNames(args, knownRights()); err != nil {
			return err
		}
	}
	if len(accounts) == 1 {
		sids := a.resolveAccounts(accounts)
		if len(sids) == 0 {
			return a.result()
		}
		own, err := p.EnumerateRightsForAccount(sids[0])
		if err != nil {
			return err
		}
		if len(args) > 0 {
			names = intersect(own, names)
		} else {
			names = own
			sort.Strings(names)
		}
	}

	var e *privilege.Engine
	if a.Natives.Tokens != nil {
		e = privilege.New(a.Natives.Tokens)
		e.System = a.system()
	}
	a.logger.Debugf("getting details for the following rights: %v", names)
	computer := a.computerName()
	var infos []RightInfo
	failed := make(map[string]error)
	for _, right := range names {
		description := a.describeRight(e, right)
		holders, err := p.EnumerateAccountsForRight(right)
		if errors.Is(err, status.ErrInvalidName) {
			failed[right] = err
			continue
		}
		if err != nil {
			return err
		}
		info := RightInfo{
			Name:         right,
			ComputerName: computer,
			DisplayName:  description,
			Accounts:     []string{},
		}
		for _, sid := range holders {
			if sids {
				info.Accounts = append(info.Accounts, sid.String())
				continue
			}
			info.Accounts = append(info.Accounts, a.accountName(sid))
		}
		infos = append(infos, info)
	}
	a.fail(failed)
	if err := a.printer.Rights(infos); err != nil {
		return err
	}
	return a.result()
}

// intersect returns the names in want that are also in have, in the order of want
func intersect(have []string, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	out := []string{}
	for _, w := range want {
		if set[w] {
			out = append(out, w)
		}
	}
	return out
}

func (a *App) rightChange(args []string, accounts []string, action RightAction) error {
	if len(accounts) == 0 {
		return errors.Errorf("%s needs at least one --account", action)
	}
	names, err := ExpandNames(args, knownRights())
	if err != nil {
		return err
	}
	access := rights.RemoveAccess
	if action == AddRight {
		access = rights.AddAccess
	}
	p, err := a.openPolicy(access)
	if err != nil {
		return err
	}
	defer a.closePolicy(p)

	sids := a.resolveAccounts(accounts)
	plan, err := PlanRights(p, names, sids, action)
	if err != nil {
		return err
	}
	a.fail(plan.Failed)
	if len(plan.Changes) == 0 {
		a.logger.Debugf("no account needs a change")
	}
	for _, c := range plan.Changes {
		if a.whatIf {
			a.printer.WhatIf("%s account rights %v for %s", action, c.Rights, c.SID)
			continue
		}
		a.logger.Debugf("%s rights %v for the account %s", action, c.Rights, c.SID)
		if action == AddRight {
			err = p.AddRights(c.SID, c.Rights)
		} else {
			err = p.RemoveRights(c.SID, c.Rights)
		}
		if err != nil {
			return err
		}
		a.metrics.OnRightChange(action.String(), len(c.Rights))
	}
	return a.result()
}

func (a *App) rightClearNames(args []string) error {
	names, err := ExpandNames(args, knownRights())
	if err != nil {
		return err
	}
	p, err := a.openPolicy(rights.RemoveAccess)
	if err != nil {
		return err
	}
	defer a.closePolicy(p)

	failed := make(map[string]error)
	for _, right := range names {
		a.logger.Debugf("getting current membership for the right %s", right)
		holders, err := p.EnumerateAccountsForRight(right)
		if errors.Is(err, status.ErrInvalidName) {
			failed[right] = err
			continue
		}
		if err != nil {
			return err
		}
		if len(holders) == 0 {
			a.logger.Debugf("right %s has no members, no action required", right)
			continue
		}
		for _, sid := range holders {
			if a.whatIf {
				a.printer.WhatIf("remove %s from the right %s", sid, right)
				continue
			}
			if err := p.RemoveRights(sid, []string{right}); err != nil {
				return err
			}
			a.metrics.OnRightChange(RemoveRight.String(), 1)
		}
	}
	a.fail(failed)
	return a.result()
}

func (a *App) rightClearAccounts(accounts []string) error {
	p, err := a.openPolicy(rights.RemoveAccess)
	if err != nil {
		return err
	}
	defer a.closePolicy(p)

	for _, sid := range a.resolveAccounts(accounts) {
		a.logger.Debugf("getting current rights for %s", sid)
		own, err := p.EnumerateRightsForAccount(sid)
		if err != nil {
			return err
		}
		if len(own) == 0 {
			a.logger.Debugf("account %s does not have any rights, no action required", sid)
			continue
		}
		if a.whatIf {
			a.printer.WhatIf("remove all rights %v from %s", own, sid)
			continue
		}
		if err := p.RemoveAllRights(sid); err != nil {
			return err
		}
		a.metrics.OnRightChange(RemoveRight.String(), len(own))
	}
	return a.result()
}
