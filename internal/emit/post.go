package emit

import (
	"fmt"

	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// postProcess derives the fields and tables requested after an analysis.
func (w *writer) postProcess(s *resolver.Step) {
	a := s.Analysis
	resu := w.result(a)
	_, combination := a.(*model.Combination)
	static := model.IsStatic(a) && !combination
	if static {
		w.p("%s=CALC_CHAMP(reuse=%s,\n", resu, resu)
		w.p("           RESULTAT=%s,\n", resu)
		w.common("           ")
		w.s("           FORCE = ('FORC_NODA'),\n           )\n\n")
		work := w.ix("CRESU", a)
		w.p("%s=POST_ELEM(RESULTAT=%s, TRAV_EXT=_F())\n\n", work, resu)
		w.p("IMPR_TABLE(TABLE=%s)\n\n", work)
		w.release(work)
		w.localDisplacements(a, resu)
		if w.opts.StressRecovery {
			w.sectionStresses(resu)
		}
	}
	if w.calcSigm {
		w.p("%s=CALC_CHAMP(reuse=%s,\n", resu, resu)
		w.p("           RESULTAT=%s,\n", resu)
		w.common("           ")
		w.s("           CONTRAINTE =('SIGM_ELNO'),\n")
		w.s("           FORCE = ('REAC_NODA', ),\n           )\n\n")
	}
	w.vonMises(a, resu)
	w.tsaiWu(a, resu)
}

// localDisplacements extracts displacements in the local frame of the
// oriented single-cell groups.
func (w *writer) localDisplacements(a model.Analysis, resu string) {
	var beams, trusses, continuum bool
	all := true
	for _, es := range w.m.ElementSets() {
		switch es.(type) {
		case *model.Truss:
			trusses = true
		case *model.Continuum:
			continuum = true
		}
		if model.IsBeam(es) {
			beams = true
		}
		if _, ok := es.(*model.Continuum); !ok {
			all = false
		}
	}
	if !(beams || (w.largeDisplacements && trusses)) || (continuum && all) {
		return
	}
	var groups []*model.Group
	for _, g := range w.mesh.CellGroups() {
		if g.Orientation != nil && len(g.Members) == 1 {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return
	}
	table := w.ix("TBLO", a)
	w.p("%s=POST_RELEVE_T(ACTION=(\n", table)
	for _, g := range groups {
		cell := w.mesh.Cell(g.Members[0])
		first, last := cell.Nodes[0], cell.Nodes[len(cell.Nodes)-1]
		w.p("                _F(OPERATION='EXTRACTION',INTITULE='%s',\n", g.Name)
		w.p("                   NOEUD=('%s','%s'),\n", w.mesh.NodeName(first), w.mesh.NodeName(last))
		w.p("                   RESULTAT=%s,NOM_CHAM='DEPL',TOUT_CMP='OUI',\n", resu)
		w.p("                   REPERE='LOCAL',VECT_Y=(%s),),\n", vec(*g.Orientation))
	}
	w.s("                ),\n                INFO=1,)\n\n")
	unit := w.ix("uloc", a)
	w.p("%s=DEFI_FICHIER(ACTION='ASSOCIER',\n             FICHIER='REPE_OUT/tbresloc_%d.csv')\n\n", unit, a.Common().ID)
	w.p("IMPR_TABLE(TABLE=%s,\n           FORMAT='TABLEAU',\n           UNITE=%s,\n           SEPARATEUR=' ,',\n           TITRE='RESULTS',\n           )\n\n", table, unit)
	w.p("DEFI_FICHIER(ACTION='LIBERER', UNITE=%s,)\n\n", unit)
	w.release(table, unit)
}

// sectionStresses recovers the section stresses at the nodes of every beam set.
func (w *writer) sectionStresses(resu string) {
	for _, es := range w.m.ElementSets() {
		if !model.IsBeam(es) || !w.effective(es) {
			continue
		}
		w.p("%s=CALC_CHAMP(reuse=%s,\n", resu, resu)
		w.p("           RESULTAT=%s,\n", resu)
		w.common("           ")
		w.p("           %s\n", EncodeCells(w.mesh, es.Common().Cells))
		w.s("           CONTRAINTE=('SIPO_NOEU'),\n           )\n\n")
	}
}

func (w *writer) vonMises(a model.Analysis, resu string) {
	var requested bool
	for _, o := range w.m.ObjectivesOf(a) {
		switch o.(type) {
		case *model.VonMisesStressOutput, *model.NodalCellVonMisesAssertion:
			requested = true
			if model.IsOutput(o) {
				w.audit.MarkWritten(o)
			}
		}
	}
	if requested {
		w.criteria(resu, "TOUT = 'OUI',")
		return
	}
	attached := make(map[int]bool)
	for _, an := range w.m.Analyses() {
		for _, id := range an.Common().ObjectiveIDs {
			attached[id] = true
		}
	}
	for _, o := range w.m.Objectives() {
		out, ok := o.(*model.VonMisesStressOutput)
		if !ok || attached[out.ID] {
			continue
		}
		w.criteria(resu, EncodeCells(w.mesh, out.Cells))
		w.audit.MarkWritten(out)
	}
}

func (w *writer) criteria(resu, cells string) {
	w.p("%s=CALC_CHAMP(reuse=%s,\n", resu, resu)
	w.p("           RESULTAT=%s,\n", resu)
	w.common("           ")
	w.s("           CRITERES =('SIEQ_ELNO','SIEQ_NOEU'),\n")
	w.p("           %s\n           )\n\n", cells)
}

// tsaiWu writes the Tsai-Wu failure index of every ply of the composites
// asking for it.
func (w *writer) tsaiWu(a model.Analysis, resu string) {
	id := a.Common().ID
	n := 0
	for _, c := range w.compositeSets() {
		n++
		if c.Failure != model.TsaiWu || !w.effective(c) {
			continue
		}
		cells := EncodeCells(w.mesh, c.Cells)
		for i, layer := range c.Layers {
			k := i + 1
			mat, err := w.m.Material(layer.MaterialID)
			if err != nil {
				w.fail(err)
				return
			}
			ortho, ok := model.FindNature[*model.OrthotropicNature](mat)
			if !ok {
				w.p("# Ignoring composite layer %d of %s: no orthotropic material\n", k, c.Ref())
				w.audit.Warn(c.Ref(), "layer %d has no orthotropic material", k)
				continue
			}
			if ortho.XT == nil || ortho.XC == nil || ortho.YT == nil || ortho.YC == nil || ortho.SLT == nil {
				w.p("# Ignoring composite layer %d of %s: missing ply strengths\n", k, c.Ref())
				w.audit.Warn(c.Ref(), "layer %d misses ply strengths", k)
				continue
			}
			ply := fmt.Sprintf("C%dL%d", n, k)
			layerField := w.name(ply)
			w.p("%s=POST_CHAMP(RESULTAT=%s,%s\n", layerField, resu, cells)
			w.p("           EXTR_COQUE=_F(NOM_CHAM='SIGM_ELNO',NUME_COUCHE=%d,NIVE_COUCHE='MOY',),)\n\n", k)

			xx := w.name(fmt.Sprintf("locxx%dL%d", n, k))
			yy := w.name(fmt.Sprintf("locyy%dL%d", n, k))
			xy := w.name(fmt.Sprintf("locxy%dL%d", n, k))
			angle := fmt.Sprintf("(%s*pi/180.)", num(layer.Orientation))
			w.p("%s = FORMULE(VALE='SIXX*cos(%s)**2+SIYY*sin(%s)**2+2*SIXY*sin(%s)*cos(%s)',NOM_PARA=('SIXX','SIYY','SIXY',),)\n",
				xx, angle, angle, angle, angle)
			w.p("%s = FORMULE(VALE='SIXX*sin(%s)**2+SIYY*cos(%s)**2-2*SIXY*sin(%s)*cos(%s)',NOM_PARA=('SIXX','SIYY','SIXY',),)\n",
				yy, angle, angle, angle, angle)
			w.p("%s = FORMULE(VALE='(SIYY-SIXX)*sin(%s)*cos(%s)+SIXY*(cos(%s)**2-sin(%s)**2)',NOM_PARA=('SIXX','SIYY','SIXY',),)\n\n",
				xy, angle, angle, angle, angle)

			local := w.name(fmt.Sprintf("r%d%s", id, ply))
			w.p("%s=CALC_CHAMP(RESULTAT=%s,%s\n", local, layerField, cells)
			w.p("           CHAM_UTIL=_F(NOM_CHAM='SIGM_ELNO', FORMULE=(%s,%s,%s),NUME_CHAM_RESU=1,),)\n\n", xx, yy, xy)
			w.p("IMPR_RESU(FORMAT='MED',UNITE=80,RESU=_F(RESULTAT=%s,NOM_CHAM='UT01_ELNO',),)\n\n", local)

			index := w.name(fmt.Sprintf("TSAI%dL%d", n, k))
			w.p("%s = FORMULE(VALE='X1*(1/xt-1/xc)+X2*(1/yt-1/yc)+X1**2/(xt*xc)+X2**2/(yt*yc)+(X3/slt)**2',\n", index)
			w.p("             xt=%s,xc=%s,yt=%s,yc=%s,slt=%s,\n", num(*ortho.XT), num(*ortho.XC), num(*ortho.YT), num(*ortho.YC), num(*ortho.SLT))
			w.s("             NOM_PARA=('X1','X2','X3',),)\n\n")
			failure := w.name(fmt.Sprintf("R%d%s", id, ply))
			w.p("%s=CALC_CHAMP(RESULTAT=%s,%s\n", failure, local, cells)
			w.p("           CHAM_UTIL=_F(NOM_CHAM='UT01_ELNO', FORMULE=%s,NUME_CHAM_RESU=2,),)\n\n", index)
			w.p("IMPR_RESU(FORMAT='MED',UNITE=80,RESU=_F(RESULTAT=%s,NOM_CHAM='UT02_ELNO',),)\n\n", failure)
			w.release(layerField, xx, yy, xy, local, index, failure)
		}
	}
}
