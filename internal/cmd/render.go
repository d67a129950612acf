package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/stevedore/internal/binding"
	"github.com/cameronsjo/stevedore/internal/template"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var (
	renderProperties string
	renderDialect    string
	renderName       string
	renderIndex      int
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a single template against a properties file",
	Long: `Render one configuration template for debugging.

Binds the template to a property tree loaded from a YAML file and prints
the result to stdout. Useful for checking a job template before packaging
it into a bundle.

Dialects:
  expr        The <% ... %> expression dialect job bundles use (default)
  gotemplate  Go text/template with the sprig function set

Examples:
  stevedore render templates/ccdb.conf.erb --properties props.yml
  stevedore render app.conf.tmpl --properties props.yml --dialect gotemplate`,
	Args: cobra.ExactArgs(1),
	Run:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderProperties, "properties", "p", "", "YAML file with the property tree")
	renderCmd.Flags().StringVar(&renderDialect, "dialect", "expr", "Template dialect: expr or gotemplate")
	renderCmd.Flags().StringVar(&renderName, "name", "debug", "Job name to bind")
	renderCmd.Flags().IntVar(&renderIndex, "index", 0, "Instance index to bind")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) {
	content, err := os.ReadFile(args[0])
	if err != nil {
		ui.Fatal("read template: %v", err)
	}

	properties := map[string]any{}
	if renderProperties != "" {
		data, err := os.ReadFile(renderProperties)
		if err != nil {
			ui.Fatal("read properties: %v", err)
		}
		if err := yaml.Unmarshal(data, &properties); err != nil {
			ui.Fatal("parse properties: %v", err)
		}
	}

	var eval template.Evaluator
	switch renderDialect {
	case "expr":
		eval = template.NewExpressionEvaluator()
	case "gotemplate":
		eval = template.NewGoTemplateEvaluator()
	default:
		ui.Fatal("unknown dialect %q (expected expr or gotemplate)", renderDialect)
	}

	b := binding.New(renderName, renderIndex, map[string]any{}, map[string]any{}, properties)

	out, err := template.NewRenderer(eval).Render(string(content), b)
	if err != nil {
		ui.Fatal("render: %v", err)
	}

	fmt.Print(out)
}
