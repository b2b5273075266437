package forge

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// stackBadges maps a lower-cased language or tool to its shields.io badge.
var stackBadges = map[string]string{
	"go":         "![Go](https://img.shields.io/badge/go-%2300ADD8.svg?style=for-the-badge&logo=go&logoColor=white)",
	"python":     "![Python](https://img.shields.io/badge/python-3670A0?style=for-the-badge&logo=python&logoColor=ffdd54)",
	"javascript": "![JavaScript](https://img.shields.io/badge/javascript-%23323330.svg?style=for-the-badge&logo=javascript&logoColor=%23F7DF1E)",
	"typescript": "![TypeScript](https://img.shields.io/badge/typescript-%23007ACC.svg?style=for-the-badge&logo=typescript&logoColor=white)",
	"rust":       "![Rust](https://img.shields.io/badge/rust-%23000000.svg?style=for-the-badge&logo=rust&logoColor=white)",
	"nextjs":     "![Next JS](https://img.shields.io/badge/Next-black?style=for-the-badge&logo=next.js&logoColor=white)",
	"react":      "![React](https://img.shields.io/badge/react-%2320232a.svg?style=for-the-badge&logo=react&logoColor=%2361DAFB)",
	"fastapi":    "![FastAPI](https://img.shields.io/badge/FastAPI-005571?style=for-the-badge&logo=fastapi)",
	"docker":     "![Docker](https://img.shields.io/badge/docker-%230db7ed.svg?style=for-the-badge&logo=docker&logoColor=white)",
}

// stack is what a README draft knows about how a project is built.
type stack struct {
	kind      string
	manifests []string
	frontend  string
	backend   string
	database  string
	badges    []string
	docker    bool
	tests     bool
}

func (st *stack) badge(key string) {
	b, ok := stackBadges[key]
	if !ok || slices.Contains(st.badges, b) {
		return
	}
	st.badges = append(st.badges, b)
}

func (st *stack) uses(manifest string) bool {
	return slices.Contains(st.manifests, manifest)
}

// detectStack reads the project kind from the top-level layout.
func detectStack(s *snapshot) *stack {
	st := &stack{kind: "Unknown", docker: s.hasFile("Dockerfile", "docker-compose.yml", "compose.yaml"), tests: s.hasTests()}

	addKind := func(kind string) {
		if st.kind == "Unknown" {
			st.kind = kind
		} else if st.kind != kind {
			st.kind = "Full-Stack"
		}
	}

	if s.Files["go.mod"] {
		addKind("Go")
		st.manifests = append(st.manifests, "go.mod")
		st.badge("go")
	}
	if s.Files["package.json"] {
		addKind("Node.js")
		st.manifests = append(st.manifests, "package.json")
		switch {
		case s.hasFile("next.config.js", "next.config.mjs", "next.config.ts"):
			st.frontend = "Next.js"
			st.badge("nextjs")
		case s.hasDir("react") || strings.Contains(strings.ToLower(strings.Join(s.Dirs, " ")), "react"):
			st.frontend = "React"
			st.badge("react")
		}
	}
	if s.hasFile("requirements.txt", "pyproject.toml") {
		addKind("Python")
		if s.Files["requirements.txt"] {
			st.manifests = append(st.manifests, "requirements.txt")
		} else {
			st.manifests = append(st.manifests, "pyproject.toml")
		}
		st.badge("python")
		if s.Files["main.py"] || s.hasDir("fastapi") {
			st.backend = "FastAPI"
			st.badge("fastapi")
		}
	}
	if s.Files["Cargo.toml"] {
		addKind("Rust")
		st.manifests = append(st.manifests, "Cargo.toml")
		st.badge("rust")
	}
	if st.docker {
		st.badge("docker")
	}

	switch {
	case s.hasDir("prisma"):
		st.database = "Prisma"
	case s.hasDir("db", "database", "migrations"):
		st.database = "Database (detected)"
	}
	for _, lang := range s.languageNames() {
		st.badge(strings.ToLower(lang))
	}
	return st
}

// DraftReadme builds a starter README.md for repo, or the default
// repository when repo is empty, from its metadata and layout.
func (g *GitHub) DraftReadme(ctx context.Context, repo string) (string, error) {
	s, err := g.fetchSnapshot(ctx, repo)
	if err != nil {
		return "", err
	}
	out := renderReadme(s, detectStack(s))
	g.logger.Info("github readme drafted", "repo", s.Repo.FullName, "bytes", len(out))
	return out, nil
}

func renderReadme(s *snapshot, st *stack) string {
	owner, name := s.Owner, s.Name
	desc := s.Repo.Description
	if desc == "" {
		desc = "No description provided"
	}
	license := s.Repo.License
	if license == "" {
		license = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", name, desc)

	b.WriteString("## Repository Stats\n\n")
	for _, kind := range []string{"stars", "forks"} {
		fmt.Fprintf(&b, "![%s](https://img.shields.io/github/%s/%s/%s?style=social)\n", strings.ToUpper(kind[:1])+kind[1:], kind, owner, name)
	}
	fmt.Fprintf(&b, "![Issues](https://img.shields.io/github/issues/%s/%s)\n", owner, name)
	fmt.Fprintf(&b, "![License](https://img.shields.io/github/license/%s/%s)\n\n", owner, name)

	b.WriteString("## Tech Stack\n\n")
	if len(st.badges) > 0 {
		b.WriteString(strings.Join(st.badges, "\n") + "\n\n")
	}
	fmt.Fprintf(&b, "**Project Type:** %s\n\n", st.kind)
	for _, kv := range [][2]string{{"Frontend", st.frontend}, {"Backend", st.backend}, {"Database", st.database}} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "**%s:** %s\n\n", kv[0], kv[1])
		}
	}

	b.WriteString("## Features\n\n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "- Feature %d: [Add your feature description]\n", i)
	}
	b.WriteString("\n")

	b.WriteString("## Installation\n\n### Prerequisites\n\n")
	if st.uses("go.mod") {
		b.WriteString("- Go (see go.mod for the minimum version)\n")
	}
	if st.uses("package.json") {
		b.WriteString("- Node.js (v18 or higher)\n- npm or yarn\n")
	}
	if st.uses("requirements.txt") || st.uses("pyproject.toml") {
		b.WriteString("- Python 3.8+\n- pip\n")
	}
	if st.uses("Cargo.toml") {
		b.WriteString("- Rust (stable) and cargo\n")
	}

	step := 1
	fmt.Fprintf(&b, "\n### Setup\n\n%d. Clone the repository\n\n```bash\ngit clone https://github.com/%s/%s.git\ncd %s\n```\n\n", step, owner, name, name)
	installs := []struct{ manifest, label, cmd string }{
		{"go.mod", "Go modules", "go mod download"},
		{"package.json", "Node.js dependencies", "npm install\n# or\nyarn install"},
		{"requirements.txt", "Python dependencies", "pip install -r requirements.txt"},
		{"pyproject.toml", "Python dependencies", "pip install -e ."},
		{"Cargo.toml", "Rust crates", "cargo build"},
	}
	for _, in := range installs {
		if st.uses(in.manifest) {
			step++
			fmt.Fprintf(&b, "%d. Install %s\n\n```bash\n%s\n```\n\n", step, in.label, in.cmd)
		}
	}
	step++
	fmt.Fprintf(&b, "%d. Set up environment variables\n\nCreate a `.env` file in the root directory:\n\n```env\n# Add your environment variables here\nAPI_KEY=your_api_key\n```\n\n", step)
	if st.docker {
		b.WriteString("### Docker Setup (Optional)\n\n```bash\ndocker compose up -d\n```\n\n")
	}

	b.WriteString("## Usage\n\n")
	switch {
	case st.frontend == "Next.js":
		b.WriteString("Start the development server:\n\n```bash\nnpm run dev\n```\n\nOpen [http://localhost:3000](http://localhost:3000) in your browser.\n\n")
	case st.uses("package.json"):
		b.WriteString("Start the application:\n\n```bash\nnpm start\n```\n\n")
	case st.uses("go.mod"):
		b.WriteString("Build and run:\n\n```bash\ngo build ./...\n```\n\n")
	}
	if st.backend == "FastAPI" {
		b.WriteString("Start the backend server:\n\n```bash\nuvicorn app.main:app --reload\n```\n\nAPI documentation is available at [http://localhost:8000/docs](http://localhost:8000/docs).\n\n")
	}

	if st.tests {
		b.WriteString("## Testing\n\n```bash\n")
		var cmds []string
		if st.uses("go.mod") {
			cmds = append(cmds, "go test ./...")
		}
		if st.uses("package.json") {
			cmds = append(cmds, "npm test")
		}
		if st.uses("requirements.txt") || st.uses("pyproject.toml") {
			cmds = append(cmds, "pytest")
		}
		if len(cmds) == 0 {
			cmds = append(cmds, "# add your test command")
		}
		b.WriteString(strings.Join(cmds, "\n") + "\n```\n\n")
	}

	fmt.Fprintf(&b, "## Project Structure\n\n```\n%s/\n", name)
	for _, d := range s.Dirs {
		fmt.Fprintf(&b, "├── %s/\n", d)
	}
	if len(s.Dirs) == 0 {
		b.WriteString("├── [Add your project structure here]\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("## Contributing\n\nContributions are welcome! Please feel free to submit a Pull Request.\n\n" +
		"1. Fork the project\n" +
		"2. Create your feature branch (`git checkout -b feature/AmazingFeature`)\n" +
		"3. Commit your changes (`git commit -m 'Add some AmazingFeature'`)\n" +
		"4. Push to the branch (`git push origin feature/AmazingFeature`)\n" +
		"5. Open a Pull Request\n\n")

	fmt.Fprintf(&b, "## License\n\nThis project is licensed under the %s License. See the LICENSE file for details.\n\n", license)
	fmt.Fprintf(&b, "## Author\n\n**%s**\n\n- GitHub: [@%s](https://github.com/%s)\n", owner, owner, owner)
	return b.String()
}
