package opentargets

const searchQuery = `
query Search($queryString: String!, $entityNames: [String!]!) {
  search(queryString: $queryString, entityNames: $entityNames) {
    hits {
      id
      name
      entity
    }
  }
}`

const knownDrugsQuery = `
query DrugKnownDrugs($drugId: String!) {
  drug(chemblId: $drugId) {
    name
    knownDrugs {
      rows {
        target {
          id
          approvedSymbol
        }
        drugType
        phase
        mechanismOfAction
        references {
          source
          urls
        }
      }
    }
  }
}`

const targetEvidenceQuery = `
query TargetEvidence($targetId: String!, $drugId: String!) {
  target(ensemblId: $targetId) {
    id
    approvedSymbol
    evidences(
      ensemblIds: [$targetId]
      datasourceIds: ["chembl", "europepmc", "expression_atlas"]
    ) {
      rows {
        disease {
          id
          name
        }
        drug {
          id
          name
        }
        datasourceId
        datatypeId
        score
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchData struct {
	Search struct {
		Hits []Hit `json:"hits"`
	} `json:"search"`
}

type knownDrugsData struct {
	Drug *struct {
		Name       string `json:"name"`
		KnownDrugs *struct {
			Rows []knownDrugRow `json:"rows"`
		} `json:"knownDrugs"`
	} `json:"drug"`
}

type knownDrugRow struct {
	Target struct {
		ID             string `json:"id"`
		ApprovedSymbol string `json:"approvedSymbol"`
	} `json:"target"`
	DrugType          string  `json:"drugType"`
	Phase             float64 `json:"phase"`
	MechanismOfAction string  `json:"mechanismOfAction"`
	References        []struct {
		Source string   `json:"source"`
		URLs   []string `json:"urls"`
	} `json:"references"`
}

type targetEvidenceData struct {
	Target *struct {
		Evidences *struct {
			Rows []evidenceRow `json:"rows"`
		} `json:"evidences"`
	} `json:"target"`
}

type evidenceRow struct {
	Drug *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"drug"`
	DatasourceID string  `json:"datasourceId"`
	DatatypeID   string  `json:"datatypeId"`
	Score        float64 `json:"score"`
}
