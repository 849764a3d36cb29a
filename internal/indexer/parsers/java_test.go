package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// Test Plan for JavaParser:
// - top-level and member classes are found with their declaration lines
// - annotations become decorators; imported annotations carry their package
// - key = value annotation arguments become one object literal argument
// - superclass and implemented interfaces keep their type arguments
// - methods keep parameters (including varargs), return types and Javadoc tags
// - the constructor is kept apart from methods
// - field declarations with several declarators yield one property each

const javaFixture = "../../../testdata/code/java/OrderController.java"

func TestJavaParser_Classes(t *testing.T) {
	t.Parallel()

	file := parseFixture(t, NewJavaParser(), javaFixture)
	assert.Equal(t, "java", file.Language)
	assert.Empty(t, file.Functions)

	require.Len(t, file.Classes, 2)
	ctrl, summary := file.Classes[0], file.Classes[1]

	assert.Equal(t, "OrderController", ctrl.Name)
	assert.Equal(t, 14, ctrl.Line)
	assert.Equal(t, []string{"api"}, ctrl.DocTags)
	assert.Equal(t, "BaseController", ctrl.BaseName)

	require.Len(t, ctrl.Implements, 2)
	assert.Equal(t, "Handler", ctrl.Implements[0].Name)
	require.Len(t, ctrl.Implements[0].Args, 2)
	assert.Equal(t, "PlaceOrder", ctrl.Implements[0].Args[0].Identity())
	assert.Equal(t, "Auditable", ctrl.Implements[1].Identity())

	assert.Equal(t, "Summary", summary.Name)
	assert.Equal(t, 34, summary.Line)
	require.Len(t, summary.Properties, 1)
	assert.Equal(t, syntax.ExprNumber, summary.Properties[0].Initializer.Kind)
}

func TestJavaParser_Annotations(t *testing.T) {
	t.Parallel()

	file := parseFixture(t, NewJavaParser(), javaFixture)
	ctrl := file.Classes[0]

	require.Len(t, ctrl.Decorators, 2)
	rest, mapping := ctrl.Decorators[0], ctrl.Decorators[1]

	assert.Equal(t, "RestController", rest.Name)
	assert.Equal(t, "org.springframework.web.bind.annotation", rest.Source)
	assert.Equal(t, 12, rest.Line)
	assert.Empty(t, rest.Args)

	assert.Equal(t, "RequestMapping", mapping.Name)
	require.Len(t, mapping.Args, 1)
	obj := mapping.Args[0]
	assert.Equal(t, syntax.ExprObject, obj.Kind)
	require.NotNil(t, obj.Property("value"))
	assert.Equal(t, syntax.ExprString, obj.Property("value").Value.Kind)
	assert.Equal(t, `"/orders"`, obj.Property("value").Value.Text)
	assert.Equal(t, syntax.ExprOther, obj.Property("produces").Value.Kind)
	assert.Equal(t, "FieldAccess", obj.Property("produces").Value.KindName)
}

func TestJavaParser_Members(t *testing.T) {
	t.Parallel()

	file := parseFixture(t, NewJavaParser(), javaFixture)
	ctrl := file.Classes[0]

	require.Len(t, file.Methods, 2)
	list, create := file.Methods[0], file.Methods[1]

	assert.Equal(t, "list", list.Name)
	assert.Same(t, ctrl, list.Parent)
	assert.Equal(t, 25, list.Line)
	assert.Equal(t, "List<Order>", list.ReturnType)
	assert.Equal(t, []string{"public"}, list.DocTags)
	require.Len(t, list.Decorators, 1)
	assert.Equal(t, "GetMapping", list.Decorators[0].Name)
	require.Len(t, list.Decorators[0].Args, 1)
	assert.Equal(t, `"/list"`, list.Decorators[0].Args[0].Text)

	assert.Equal(t, "create", create.Name)
	assert.Equal(t, 30, create.Line)
	assert.Equal(t, "T", create.ReturnType)
	assert.Equal(t, []string{"T"}, create.TypeParameters)
	assert.Equal(t, []syntax.Param{
		{Name: "body", Type: "CreateOrder"},
		{Name: "tags", Type: "String..."},
	}, create.Params)
	assert.Empty(t, create.DocTags)

	require.NotNil(t, ctrl.Constructor)
	assert.Equal(t, []syntax.Param{
		{Name: "service", Type: "OrderService"},
		{Name: "clock", Type: "Clock"},
	}, ctrl.Constructor.Params)

	require.Len(t, ctrl.Properties, 4)
	version := propertyNamed(ctrl, "VERSION")
	require.NotNil(t, version)
	assert.True(t, version.Static)
	assert.Equal(t, `"v2"`, version.Initializer.Text)

	retries := propertyNamed(ctrl, "retries")
	require.NotNil(t, retries)
	assert.False(t, retries.Static)
	assert.Equal(t, "3", retries.Initializer.Text)
	assert.Nil(t, propertyNamed(ctrl, "timeout").Initializer)
	assert.Nil(t, propertyNamed(ctrl, "service").Initializer)
}

func TestJavaParser_ParseErrorsTolerated(t *testing.T) {
	t.Parallel()

	source := []byte("@Service\npublic class Broken {\n  void run( {\n}\n")
	file, err := NewJavaParser().Parse(context.Background(), "Broken.java", source)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "Broken.java", file.Path)
}

func TestLinkBases(t *testing.T) {
	t.Parallel()

	baseA := &syntax.Declaration{Kind: syntax.KindClass, Name: "Base", File: "a.ts"}
	baseB := &syntax.Declaration{Kind: syntax.KindClass, Name: "Base", File: "b.ts"}
	childB := &syntax.Declaration{Kind: syntax.KindClass, Name: "Child", File: "b.ts", BaseName: "Base"}
	childC := &syntax.Declaration{Kind: syntax.KindClass, Name: "Other", File: "c.ts", BaseName: "lib.Base"}
	orphan := &syntax.Declaration{Kind: syntax.KindClass, Name: "Orphan", File: "c.ts", BaseName: "Missing", Base: baseA}
	self := &syntax.Declaration{Kind: syntax.KindClass, Name: "Loop", File: "d.ts", BaseName: "Loop"}

	LinkBases([]*syntax.File{
		{Path: "b.ts", Classes: []*syntax.Declaration{baseB, childB}},
		{Path: "a.ts", Classes: []*syntax.Declaration{baseA}},
		{Path: "c.ts", Classes: []*syntax.Declaration{childC, orphan}},
		{Path: "d.ts", Classes: []*syntax.Declaration{self}},
	})

	// Test: same-file candidate wins
	assert.Same(t, baseB, childB.Base)
	// Test: otherwise the lexically first path wins
	assert.Same(t, baseA, childC.Base)
	// Test: stale links are cleared
	assert.Nil(t, orphan.Base)
	// Test: a class never extends itself
	assert.Nil(t, self.Base)
}
