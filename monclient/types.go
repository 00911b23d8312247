// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package monclient

import "fmt"

// EntityName identifies the principal this client authenticates as
// (spec §6). It has the same fields as cephx.EntityName, which dialMon
// builds from it when authenticating.
type EntityName struct {
	Type string
	ID   string
}

func (e EntityName) String() string { return e.Type + "." + e.ID }

func ClientEntity(id string) EntityName { return EntityName{Type: "client", ID: id} }
func OSDEntity(id string) EntityName    { return EntityName{Type: "osd", ID: id} }
func MonEntity(id string) EntityName    { return EntityName{Type: "mon", ID: id} }
func MDSEntity(id string) EntityName    { return EntityName{Type: "mds", ID: id} }
func MgrEntity(id string) EntityName    { return EntityName{Type: "mgr", ID: id} }

// CommandResult is the structured reply to a monitor command (spec
// §4.5 "commands return a return code, a human string, and an
// optional output blob").
type CommandResult struct {
	RetVal int32
	Outs   string
	Outbl  []byte
}

func (r CommandResult) IsSuccess() bool { return r.RetVal == 0 }

func (r CommandResult) Error() string {
	return fmt.Sprintf("monclient: command failed (rc=%d): %s", r.RetVal, r.Outs)
}
