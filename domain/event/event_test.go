package event

import (
	"gatekeeper/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemberUpdated_Joined(t *testing.T) {
	tests := []struct {
		name      string
		old       domain.MemberStatus
		oldInChat bool
		new       domain.MemberStatus
		joined    bool
	}{
		{name: "left to member", old: domain.StatusLeft, new: domain.StatusMember, joined: true},
		{name: "kicked to member", old: domain.StatusKicked, new: domain.StatusMember, joined: true},
		{name: "unknown to member", old: "", new: domain.StatusMember, joined: true},
		{name: "restricted outside the chat to member", old: domain.StatusRestricted, new: domain.StatusMember, joined: true},
		{name: "restriction lifted", old: domain.StatusRestricted, oldInChat: true, new: domain.StatusMember},
		{name: "administrator demoted", old: domain.StatusAdministrator, new: domain.StatusMember},
		{name: "creator demoted", old: domain.StatusCreator, new: domain.StatusMember},
		{name: "member to member", old: domain.StatusMember, new: domain.StatusMember},
		{name: "member promoted", old: domain.StatusMember, new: domain.StatusAdministrator},
		{name: "member left", old: domain.StatusMember, new: domain.StatusLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := MemberUpdated{OldStatus: tt.old, OldInChat: tt.oldInChat, NewStatus: tt.new}
			require.Equal(t, tt.joined, evt.Joined())
		})
	}
}
