package cv

const (
	ConfidentialCompany = "Confidential"
	MaxPublicHighlights = 3
)

// PublicView returns a copy of c with personal contact data, employer names, skill levels and
// private projects removed. The input is never modified.
func PublicView(c CV) CV {
	out := c

	out.Basics = c.Basics
	out.Basics.Email = ""
	out.Basics.Phone = ""
	if c.Basics.Location != nil {
		loc := *c.Basics.Location
		loc.Address = ""
		loc.PostalCode = ""
		out.Basics.Location = &loc
	}
	out.Basics.Profiles = append([]Profile(nil), c.Basics.Profiles...)

	if c.Skills != nil {
		out.Skills = make([]Skill, len(c.Skills))
		for i, s := range c.Skills {
			s.Level = ""
			s.Keywords = append([]string(nil), s.Keywords...)
			out.Skills[i] = s
		}
	}

	if c.Work != nil {
		out.Work = make([]Work, len(c.Work))
		for i, w := range c.Work {
			w.Name = ConfidentialCompany
			w.Highlights = truncate(w.Highlights, MaxPublicHighlights)
			out.Work[i] = w
		}
	}

	if c.Projects != nil {
		out.Projects = make([]Project, 0, len(c.Projects))
		for _, p := range c.Projects {
			if p.IsPrivate {
				continue
			}
			p.Entity = ""
			p.Metrics = nil
			p.Highlights = append([]string(nil), p.Highlights...)
			p.Keywords = append([]string(nil), p.Keywords...)
			p.Roles = append([]string(nil), p.Roles...)
			out.Projects = append(out.Projects, p)
		}
	}

	return out
}

func truncate(in []string, n int) []string {
	if in == nil {
		return nil
	}
	if len(in) > n {
		in = in[:n]
	}
	return append([]string(nil), in...)
}
