package commands

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jet/privy/privilege"
	"github.com/jet/privy/status"
	"github.com/jet/privy/tokenbuf"
)

// PrivilegePlan is the adjustment needed to bring a token to the requested state
type PrivilegePlan struct {
	// State holds the privileges that have to change
	State privilege.DesiredState
	// NoOps are the names already in the requested state
	NoOps []string
	// Failed holds the names that cannot be changed
	Failed map[string]error
}

// PlanPrivileges decides what applying intent to names means for a token
// holding held. Unknown names and enable or disable of a privilege the token
// does not hold are failures; removing one is a no-op.
func PlanPrivileges(e *privilege.Engine, held map[string]privilege.Record, names []string, intent privilege.Intent) (*PrivilegePlan, error) {
	plan := &PrivilegePlan{
		State:  make(privilege.DesiredState),
		Failed: make(map[string]error),
	}
	for _, name := range names {
		ok, err := e.CheckName(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			plan.Failed[name] = errors.Wrapf(status.ErrInvalidName, "invalid privilege name %q", name)
			continue
		}
		r, isHeld := held[name]
		switch {
		case !isHeld && intent == privilege.Remove:
			plan.NoOps = append(plan.NoOps, name)
		case !isHeld:
			plan.Failed[name] = errors.Wrapf(status.ErrNotHeld, "cannot %s privilege %q as it is not held by the process", intent, name)
		case intent == privilege.Remove:
			plan.State[name] = intent
		case intent == privilege.Enable && !r.Enabled():
			plan.State[name] = intent
		case intent == privilege.Disable && r.Enabled():
			plan.State[name] = intent
		default:
			plan.NoOps = append(plan.NoOps, name)
		}
	}
	return plan, nil
}

// GetPrivileges describes names on a token holding held. A valid name the
// token does not hold is reported as removed.
func GetPrivileges(e *privilege.Engine, held map[string]privilege.Record, names []string) ([]PrivilegeInfo, map[string]error, error) {
	var infos []PrivilegeInfo
	failed := make(map[string]error)
	for _, name := range names {
		ok, err := e.CheckName(name)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			failed[name] = errors.Wrapf(status.ErrInvalidName, "invalid privilege name %q", name)
			continue
		}
		display, err := e.DisplayName(name)
		if err != nil {
			return nil, nil, err
		}
		info := PrivilegeInfo{
			Name:        name,
			DisplayName: display,
			Attributes:  tokenbuf.Removed,
			IsRemoved:   true,
		}
		if r, ok := held[name]; ok {
			info.Attributes = r.Attributes
			info.Enabled = r.Enabled()
			info.EnabledByDefault = r.EnabledByDefault()
			info.IsRemoved = false
		}
		infos = append(infos, info)
	}
	return infos, failed, nil
}

func heldNames(held map[string]privilege.Record) []string {
	names := make([]string, 0, len(held))
	for name := range held {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *App) privilegeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privilege",
		Short: "Query and adjust the privileges of a process token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [NAME...]",
			Short: "Show the privileges of the process",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.privilegeGet(args)
			},
		},
		a.privilegeChangeCommand(privilege.Enable, "Enable privileges held by the process"),
		a.privilegeChangeCommand(privilege.Disable, "Disable privileges held by the process"),
		a.privilegeChangeCommand(privilege.Remove, "Remove privileges from the process token for good"),
		&cobra.Command{
			Use:   "disable-all",
			Short: "Disable every privilege of the process",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.privilegeDisableAll()
			},
		},
	)
	return cmd
}

func (a *App) privilegeChangeCommand(intent privilege.Intent, short string) *cobra.Command {
	return &cobra.Command{
		Use:   intent.String() + " NAME...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.privilegeChange(args, intent)
		},
	}
}

func (a *App) privilegeGet(args []string) error {
	e, err := a.privilegeEngine()
	if err != nil {
		return err
	}
	proc, release, err := a.openProcess(e)
	if err != nil {
		return err
	}
	defer release()

	a.logger.Debugf("getting privilege info for all privileges on the process")
	held, err := e.QueryAll(proc)
	if err != nil {
		return err
	}
	names := heldNames(held)
	if len(args) > 0 {
		if names, err = ExpandNames(args, privilege.Names()); err != nil {
			return err
		}
	}
	infos, failed, err := GetPrivileges(e, held, names)
	if err != nil {
		return err
	}
	a.fail(failed)
	if err := a.printer.Privileges(infos); err != nil {
		return err
	}
	return a.result()
}

func (a *App) privilegeChange(args []string, intent privilege.Intent) error {
	names, err := ExpandNames(args, privilege.Names())
	if err != nil {
		return err
	}
	e, err := a.privilegeEngine()
	if err != nil {
		return err
	}
	proc, release, err := a.openProcess(e)
	if err != nil {
		return err
	}
	defer release()

	held, err := e.QueryAll(proc)
	if err != nil {
		return err
	}
	plan, err := PlanPrivileges(e, held, names, intent)
	if err != nil {
		return err
	}
	a.fail(plan.Failed)
	for _, name := range plan.NoOps {
		a.logger.Debugf("privilege %s needs no %s, no action necessary", name, intent)
	}
	if len(plan.State) == 0 {
		return a.result()
	}
	if a.whatIf {
		for _, name := range plan.State.Names() {
			a.printer.WhatIf("%s privilege %s", intent, name)
		}
		return a.result()
	}

	a.logger.Debugf("setting token privileges %v", plan.State.Names())
	change, err := e.Apply(proc, plan.State)
	if err != nil {
		return err
	}
	a.fail(change.Failed)
	if change.NotAllAssigned {
		a.logger.Warnf("the token does not hold every privilege that was requested")
	}
	a.metrics.OnPrivilegeChange(intent.String(), len(change.Previous))
	return a.result()
}

func (a *App) privilegeDisableAll() error {
	e, err := a.privilegeEngine()
	if err != nil {
		return err
	}
	proc, release, err := a.openProcess(e)
	if err != nil {
		return err
	}
	defer release()

	if a.whatIf {
		a.printer.WhatIf("disable all privileges")
		return nil
	}
	change, err := e.DisableAll(proc)
	if err != nil {
		return err
	}
	a.logger.Debugf("disabled all privileges, previous state %v", change.Previous)
	a.metrics.OnPrivilegeChange(privilege.Disable.String(), len(change.Previous))
	return nil
}
