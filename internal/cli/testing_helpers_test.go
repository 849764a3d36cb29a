package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `
include: ["**/*.ts"]
ignore: ["node_modules/**"]
output: out/components.json
modules:
  - name: orders
    path: "src/orders/**"
    api:
      find: methods
      where: { hasDecorator: { name: Get } }
      extract:
        route: { fromDecoratorArg: { position: 0 } }
    useCase:
      find: classes
      where: { nameEndsWith: { suffix: UseCase } }
    domainOp: notUsed
    event: notUsed
    eventHandler: notUsed
    ui: notUsed
    customTypes:
      repository:
        find: classes
        where: { implementsInterface: { name: Repository } }
`

var testSources = map[string]string{
	"src/orders/orders.controller.ts": `
export class OrderController {
  @Get('/orders')
  list() {}
}
`,
	"src/orders/place-order.ts": `
export class PlaceOrderUseCase {}
`,
	"node_modules/lib/index.ts": `
export class VendoredUseCase {}
`,
}

// writeTestFile writes content to name under dir, creating parent directories.
func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// setupTestProject creates a project with an archextract.yaml and sources.
func setupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeTestFile(t, dir, "archextract.yaml", testConfig)
	for name, content := range testSources {
		writeTestFile(t, dir, name, content)
	}
	return dir
}
