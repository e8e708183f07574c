package assemble

/*
EnforceInternalDofs applies imposed interior dof values to a cellwise system
algebraically, before assembly: the row and column of each enforced dof are
zeroed, its diagonal set to one and its right-hand side set to the imposed
value, while every free dof's right-hand side loses the coupling
contribution A_ie * x_e. work must hold at least 2*NDofs entries.
*/
func EnforceInternalDofs(forcedValues []float64, csys *CellSystem, work []float64) {
	if csys.ForcedIDs == nil {
		return // Nothing to do
	}
	var (
		n     = csys.NDofs
		xVals = work[:n]
		ax    = work[n : 2*n]
	)
	for i := 0; i < 2*n; i++ {
		work[i] = 0
	}

	// Imposed values at the enforced dofs, zero elsewhere
	for i := 0; i < n; i++ {
		if csys.ForcedIDs[i] > -1 {
			xVals[i] = forcedValues[csys.ForcedIDs[i]]
		}
	}

	// Coupling of the enforced dofs into the free rows
	copy(ax, csys.Mat.MulVec(xVals))

	// Second pass: replace the block of enforced dofs by a diagonal block
	for i := 0; i < n; i++ {
		if csys.ForcedIDs[i] > -1 {
			for j := 0; j < n; j++ {
				csys.Mat.Set(i, j, 0)
				csys.Mat.Set(j, i, 0)
			}
			csys.Mat.Set(i, i, 1)
			csys.RHS[i] = xVals[i]
		} else {
			csys.RHS[i] -= ax[i]
		}
	}
}
