package frontend

import (
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/lexer"
	"github.com/vk/spacerules/internal/species"
)

// parseSpecies reads `species Name(attr: range, ...) sites(site: angle, ...);`.
func (p *parser) parseSpecies() error {
	p.s.Next() // species
	name := p.s.Next()
	def := &species.Def{Name: name.Text, Range: name.Range}

	if _, ok := p.s.Accept(lexer.LParen); ok {
		if _, ok := p.s.Accept(lexer.RParen); !ok {
			for {
				attr, err := p.ident("attribute name")
				if err != nil {
					return err
				}
				if _, err := p.expect(lexer.Colon); err != nil {
					return err
				}
				domain, err := p.parseRange(false)
				if err != nil {
					return err
				}
				def.Attributes = append(def.Attributes, species.Attribute{Name: attr.Text, Domain: domain})
				if _, ok := p.s.Accept(lexer.Comma); ok {
					continue
				}
				if _, err := p.expect(lexer.RParen); err != nil {
					return err
				}
				break
			}
		}
	}

	if p.s.AcceptWord("sites") {
		if _, err := p.expect(lexer.LParen); err != nil {
			return err
		}
		for {
			site, err := p.ident("binding site name")
			if err != nil {
				return err
			}
			s := species.Site{Name: site.Text}
			if _, ok := p.s.Accept(lexer.Colon); ok {
				angle, _, err := p.numeric()
				if err != nil {
					return err
				}
				s.Angle = &angle
			}
			def.Sites = append(def.Sites, s)
			if _, ok := p.s.Accept(lexer.Comma); ok {
				continue
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return err
			}
			break
		}
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return err
	}
	if err := p.pc.Registry.Register(def); err != nil {
		return err
	}
	ctxlog.FromContext(p.ctx).Debug("Species declared.", "species", def.String())
	return nil
}
