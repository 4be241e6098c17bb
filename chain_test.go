package schemachain_test

import (
	"math/rand"
	"testing"

	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/migrations"
	"github.com/stockdesk/schemachain/schema"
	"github.com/stretchr/testify/require"
)

var observed = []string{
	"001_initial",
	"002_add_usd_fields",
	"003_add_product_usd_color",
	"004_add_telegram_id",
	"005_add_edit_tracking",
	"006_add_user_language",
	"007_add_default_per_piece",
}

// newStep returns a step that adds a single nullable column named after the revision.
func newStep(rev, parent string) *schemachain.Step {
	op := schema.AddColumn{Table: "t", Column: schema.Column{Name: "c_" + rev, Type: schema.Integer(), Nullable: true}}
	return &schemachain.Step{
		Revision: rev,
		Parent:   parent,
		Up:       []schema.Operation{op},
		Down:     []schema.Operation{op.Inverse()},
	}
}

func revisions(steps []*schemachain.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Revision)
	}
	return out
}

func TestResolveOrder(t *testing.T) {
	t.Parallel()

	t.Run("shuffled", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for range 20 {
			steps := migrations.Steps()
			rng.Shuffle(len(steps), func(i, j int) { steps[i], steps[j] = steps[j], steps[i] })
			ordered, err := schemachain.ResolveOrder(steps)
			require.NoError(t, err)
			require.Equal(t, observed, revisions(ordered))
		}
	})
	t.Run("does_not_modify_input", func(t *testing.T) {
		steps := []*schemachain.Step{newStep("b", "a"), newStep("a", "")}
		_, err := schemachain.ResolveOrder(steps)
		require.NoError(t, err)
		require.Equal(t, []string{"b", "a"}, revisions(steps))
	})
	t.Run("single", func(t *testing.T) {
		ordered, err := schemachain.ResolveOrder([]*schemachain.Step{newStep("a", "")})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, revisions(ordered))
	})
	t.Run("empty", func(t *testing.T) {
		_, err := schemachain.ResolveOrder(nil)
		require.ErrorIs(t, err, schemachain.ErrNoSteps)
	})
	t.Run("broken", func(t *testing.T) {
		steps := migrations.Steps()
		// Drop 003, so 004's parent is missing.
		steps = append(steps[:2:2], steps[3:]...)
		_, err := schemachain.ResolveOrder(steps)
		require.ErrorIs(t, err, schemachain.ErrBrokenChain)
		require.Contains(t, err.Error(), "004_add_telegram_id")
	})
	t.Run("ambiguous_parent", func(t *testing.T) {
		steps := append(migrations.Steps(), newStep("003_other", "002_add_usd_fields"))
		_, err := schemachain.ResolveOrder(steps)
		require.ErrorIs(t, err, schemachain.ErrAmbiguousChain)
	})
	t.Run("multiple_roots", func(t *testing.T) {
		_, err := schemachain.ResolveOrder([]*schemachain.Step{newStep("a", ""), newStep("b", "")})
		require.ErrorIs(t, err, schemachain.ErrAmbiguousChain)
	})
	t.Run("duplicate_revision", func(t *testing.T) {
		_, err := schemachain.ResolveOrder([]*schemachain.Step{newStep("a", ""), newStep("b", "a"), newStep("b", "a")})
		require.ErrorIs(t, err, schemachain.ErrAmbiguousChain)
	})
	t.Run("no_root", func(t *testing.T) {
		_, err := schemachain.ResolveOrder([]*schemachain.Step{newStep("a", "b"), newStep("b", "a")})
		require.ErrorIs(t, err, schemachain.ErrBrokenChain)
	})
	t.Run("cycle_detached_from_root", func(t *testing.T) {
		steps := []*schemachain.Step{
			newStep("a", ""),
			newStep("b", "a"),
			newStep("x", "y"),
			newStep("y", "x"),
		}
		_, err := schemachain.ResolveOrder(steps)
		require.ErrorIs(t, err, schemachain.ErrBrokenChain)
		require.Contains(t, err.Error(), "[x,y]")
	})
	t.Run("invalid_step", func(t *testing.T) {
		s := newStep("b", "a")
		s.Down = nil
		_, err := schemachain.ResolveOrder([]*schemachain.Step{newStep("a", ""), s})
		require.ErrorIs(t, err, schemachain.ErrInvalidStep)
		_, err = schemachain.ResolveOrder([]*schemachain.Step{nil})
		require.ErrorIs(t, err, schemachain.ErrInvalidStep)
	})
}

func TestChainPaths(t *testing.T) {
	t.Parallel()

	chain, err := migrations.Chain()
	require.NoError(t, err)
	require.Equal(t, 7, chain.Len())
	require.Equal(t, observed, chain.Revisions())
	require.Equal(t, "001_initial", chain.Root().Revision)
	require.Equal(t, "007_add_default_per_piece", chain.Head().Revision)

	t.Run("upgrade", func(t *testing.T) {
		path, err := chain.UpgradePath("003_add_product_usd_color", "001_initial")
		require.NoError(t, err)
		require.Equal(t, observed[1:3], revisions(path))

		path, err = chain.UpgradePath(schemachain.Head, schemachain.Base)
		require.NoError(t, err)
		require.Equal(t, observed, revisions(path))

		path, err = chain.UpgradePath("latest", "")
		require.NoError(t, err)
		require.Len(t, path, 7)

		path, err = chain.UpgradePath("004_add_telegram_id", "004_add_telegram_id")
		require.NoError(t, err)
		require.Empty(t, path)
	})
	t.Run("upgrade_errors", func(t *testing.T) {
		_, err := chain.UpgradePath("999_nonexistent", "001_initial")
		require.ErrorIs(t, err, schemachain.ErrUnknownRevision)
		_, err = chain.UpgradePath("002_add_usd_fields", "999_nonexistent")
		require.ErrorIs(t, err, schemachain.ErrUnknownRevision)
		_, err = chain.UpgradePath("002_add_usd_fields", "005_add_edit_tracking")
		require.ErrorIs(t, err, schemachain.ErrNotAncestor)
		require.Contains(t, err.Error(), "cannot upgrade from 005_add_edit_tracking to 002_add_usd_fields")
	})
	t.Run("downgrade", func(t *testing.T) {
		path, err := chain.DowngradePath("004_add_telegram_id", "006_add_user_language")
		require.NoError(t, err)
		require.Equal(t, []string{"006_add_user_language", "005_add_edit_tracking"}, revisions(path))

		path, err = chain.DowngradePath(schemachain.Base, schemachain.Head)
		require.NoError(t, err)
		require.Len(t, path, 7)
		require.Equal(t, "007_add_default_per_piece", path[0].Revision)
		require.Equal(t, "001_initial", path[6].Revision)

		path, err = chain.DowngradePath(schemachain.Base, schemachain.Base)
		require.NoError(t, err)
		require.Empty(t, path)
	})
	t.Run("downgrade_errors", func(t *testing.T) {
		_, err := chain.DowngradePath("006_add_user_language", "004_add_telegram_id")
		require.ErrorIs(t, err, schemachain.ErrNotAncestor)
		_, err = chain.DowngradePath("nope", "004_add_telegram_id")
		require.ErrorIs(t, err, schemachain.ErrUnknownRevision)
	})
	t.Run("path_to", func(t *testing.T) {
		d, path, err := chain.PathTo("002_add_usd_fields", "004_add_telegram_id")
		require.NoError(t, err)
		require.Equal(t, schemachain.DirectionDown, d)
		require.Equal(t, []string{"004_add_telegram_id", "003_add_product_usd_color"}, revisions(path))

		plan, err := chain.Plan(schemachain.Head, "005_add_edit_tracking")
		require.NoError(t, err)
		require.Equal(t, schemachain.DirectionUp, plan.Direction)
		require.Equal(t, "005_add_edit_tracking", plan.From)
		require.Equal(t, "007_add_default_per_piece", plan.To)
		require.Len(t, plan.Steps, 2)
	})
	t.Run("lookups", func(t *testing.T) {
		s, err := chain.Lookup("004_add_telegram_id")
		require.NoError(t, err)
		require.Equal(t, "003_add_product_usd_color", s.Parent)
		_, err = chain.Lookup(schemachain.Head)
		require.ErrorIs(t, err, schemachain.ErrUnknownRevision)

		parent, err := chain.Parent("001_initial")
		require.NoError(t, err)
		require.Empty(t, parent)

		next, err := chain.Next(schemachain.Base)
		require.NoError(t, err)
		require.Equal(t, "001_initial", next.Revision)
		_, err = chain.Next("007_add_default_per_piece")
		require.ErrorIs(t, err, schemachain.ErrNoNextRevision)

		rev, err := chain.Resolve("latest")
		require.NoError(t, err)
		require.Equal(t, "007_add_default_per_piece", rev)
		rev, err = chain.Resolve(schemachain.Base)
		require.NoError(t, err)
		require.Empty(t, rev)
	})
}

func TestChainOwnsSteps(t *testing.T) {
	t.Parallel()

	steps := []*schemachain.Step{newStep("a", ""), newStep("b", "a")}
	chain, err := schemachain.NewChain(steps...)
	require.NoError(t, err)
	steps[1].Revision = "mutated"
	steps[1].Up = nil
	s, err := chain.Lookup("b")
	require.NoError(t, err)
	require.Len(t, s.Up, 1)

	t.Run("nested", func(t *testing.T) {
		steps := migrations.Steps()
		chain, err := schemachain.NewChain(steps...)
		require.NoError(t, err)
		create := steps[0].Up[0].(schema.CreateTable)
		name := create.Columns[3].Name
		create.Columns[3].Name = "mutated"
		*create.Columns[3].Default = *schema.DecimalValue("42")

		s, err := chain.Lookup(migrations.RevInitial)
		require.NoError(t, err)
		got := s.Up[0].(schema.CreateTable)
		require.Equal(t, name, got.Columns[3].Name)
		require.True(t, got.Columns[3].Default.Equal(schema.DecimalValue("0")))
		for _, op := range s.Down {
			if drop, ok := op.(schema.DropTable); ok {
				for _, c := range drop.Columns {
					require.NotEqual(t, "mutated", c.Name)
				}
			}
		}
	})
}
