package scope_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
)

func TestFilter(t *testing.T) {
	c := qt.New(t)

	c.Run("personal context selects owner rows", func(c *qt.C) {
		p, err := scope.Filter(scope.PersonalContext(), "alice")
		c.Assert(err, qt.IsNil)
		c.Assert(p.IsPersonal(), qt.IsTrue)
		c.Assert(p.UserID(), qt.Equals, "alice")
		c.Assert(p.Key(), qt.Equals, "personal:alice")
	})

	c.Run("group context selects group rows", func(c *qt.C) {
		p, err := scope.Filter(scope.GroupContext("g1"), "alice")
		c.Assert(err, qt.IsNil)
		c.Assert(p.IsPersonal(), qt.IsFalse)
		c.Assert(p.GroupID(), qt.Equals, "g1")
		c.Assert(p.Key(), qt.Equals, "group:g1")
	})

	c.Run("unloaded context is a scope violation", func(c *qt.C) {
		_, err := scope.Filter(scope.Context{}, "alice")
		c.Assert(err, qt.ErrorIs, scope.ErrScopeViolation)
	})

	c.Run("group without id is a scope violation", func(c *qt.C) {
		_, err := scope.Filter(scope.Context{Mode: scope.Group}, "alice")
		c.Assert(err, qt.ErrorIs, scope.ErrScopeViolation)
	})

	c.Run("missing user is unauthenticated", func(c *qt.C) {
		_, err := scope.Filter(scope.PersonalContext(), "")
		c.Assert(err, qt.ErrorIs, scope.ErrUnauthenticated)
	})
}

func TestPredicate_Matches(t *testing.T) {
	c := qt.New(t)

	personal, _ := scope.Filter(scope.PersonalContext(), "alice")
	group, _ := scope.Filter(scope.GroupContext("g1"), "alice")

	cases := []struct {
		name         string
		record       models.Scope
		wantPersonal bool
		wantGroup    bool
	}{
		{"own personal record", models.Scope{OwnerUserID: "alice"}, true, false},
		{"someone else's personal record", models.Scope{OwnerUserID: "bob"}, false, false},
		{"record of the group", models.Scope{GroupID: "g1"}, false, true},
		{"record of another group", models.Scope{GroupID: "g2"}, false, false},
		{"record with both owners", models.Scope{OwnerUserID: "alice", GroupID: "g1"}, false, false},
		{"unstamped record", models.Scope{}, false, false},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(personal.Matches(tc.record), qt.Equals, tc.wantPersonal)
			c.Assert(group.Matches(tc.record), qt.Equals, tc.wantGroup)
		})
	}
}

func TestPredicate_Stamp(t *testing.T) {
	c := qt.New(t)

	c.Run("personal stamp sets owner only", func(c *qt.C) {
		p, _ := scope.Filter(scope.PersonalContext(), "alice")
		var s models.Scope
		c.Assert(p.Stamp(&s), qt.IsNil)
		c.Assert(s.OwnerUserID, qt.Equals, "alice")
		c.Assert(s.GroupID, qt.Equals, "")
		c.Assert(s.CreatedBy, qt.Equals, "alice")
	})

	c.Run("group stamp sets group only", func(c *qt.C) {
		p, _ := scope.Filter(scope.GroupContext("g1"), "alice")
		var s models.Scope
		c.Assert(p.Stamp(&s), qt.IsNil)
		c.Assert(s.OwnerUserID, qt.Equals, "")
		c.Assert(s.GroupID, qt.Equals, "g1")
		c.Assert(s.CreatedBy, qt.Equals, "alice")
	})

	c.Run("record stamped for another context is rejected", func(c *qt.C) {
		p, _ := scope.Filter(scope.GroupContext("g1"), "alice")
		s := models.Scope{OwnerUserID: "alice"}
		c.Assert(p.Stamp(&s), qt.ErrorIs, scope.ErrScopeViolation)
		c.Assert(s.OwnerUserID, qt.Equals, "alice")
		c.Assert(s.GroupID, qt.Equals, "")
	})

	c.Run("zero predicate is rejected", func(c *qt.C) {
		var s models.Scope
		c.Assert(scope.Predicate{}.Stamp(&s), qt.ErrorIs, scope.ErrScopeViolation)
	})

	c.Run("impersonation keeps explicit author", func(c *qt.C) {
		p, err := scope.Impersonate("alice", "g1")
		c.Assert(err, qt.IsNil)
		c.Assert(p.IsAdmin(), qt.IsTrue)
		s := models.Scope{CreatedBy: "bob"}
		c.Assert(p.Stamp(&s), qt.IsNil)
		c.Assert(s.GroupID, qt.Equals, "g1")
		c.Assert(s.CreatedBy, qt.Equals, "bob")
	})
}

func TestContext(t *testing.T) {
	c := qt.New(t)

	c.Assert(scope.Context{}.IsLoaded(), qt.IsFalse)
	c.Assert(scope.Context{}.IsPersonal(), qt.IsFalse)
	c.Assert(scope.FromActiveContextID(nil), qt.Equals, scope.PersonalContext())

	id := "g1"
	c.Assert(scope.FromActiveContextID(&id), qt.Equals, scope.GroupContext("g1"))
	c.Assert(scope.PersonalContext().ActiveContextID(), qt.IsNil)
	c.Assert(*scope.GroupContext("g1").ActiveContextID(), qt.Equals, "g1")
}
